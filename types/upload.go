package types

// UploadStatus is the lifecycle status of a single upload item.
type UploadStatus string

// Upload status constants.
const (
	UploadStatusQueued    UploadStatus = "queued"
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusDone      UploadStatus = "done"
	UploadStatusError     UploadStatus = "error"
)

// IsTerminal returns true for done and error.
func (s UploadStatus) IsTerminal() bool {
	return s == UploadStatusDone || s == UploadStatusError
}

// UploadItem is a point-in-time view of one submitted file.
// ID is assigned at enqueue and never changes.
type UploadItem struct {
	ID     string       `json:"id" yaml:"id"`
	Name   string       `json:"name" yaml:"name"`
	Source string       `json:"source" yaml:"source"`
	Status UploadStatus `json:"status" yaml:"status"`
}
