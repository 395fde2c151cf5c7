// Package filesrc provides the file handles an upload queue submits.
//
// A handle names a document and opens its bytes on demand, so nothing is
// read until the upload for that item is actually issued.
package filesrc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Handle is a submitted file.
type Handle interface {
	// Name is the file name sent with the upload and used as the default title.
	Name() string
	// Source identifies where the bytes come from (path or s3:// URI).
	Source() string
	// Open returns the file contents. The caller closes the reader.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// LocalFile is a file on the local filesystem.
type LocalFile struct {
	path string
}

// NewLocalFile returns a handle for path.
// Returns an error if path does not exist or is a directory.
func NewLocalFile(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot stat %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &LocalFile{path: path}, nil
}

// Name returns the base name of the file.
func (f *LocalFile) Name() string { return filepath.Base(f.path) }

// Source returns the path as given.
func (f *LocalFile) Source() string { return f.path }

// Open opens the file for reading.
func (f *LocalFile) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

// Resolver maps CLI arguments to handles.
type Resolver struct {
	// S3 returns the client used for s3:// arguments. It is only called when
	// at least one such argument is present.
	S3 func(ctx context.Context) (S3API, error)
}

// Resolve returns one handle per argument, in argument order.
// Arguments starting with s3:// are S3 objects; everything else is a local path.
func (r *Resolver) Resolve(ctx context.Context, args []string) ([]Handle, error) {
	if len(args) == 0 {
		return nil, errors.New("no files given")
	}

	var client S3API
	handles := make([]Handle, 0, len(args))
	for _, arg := range args {
		if !strings.HasPrefix(arg, S3Scheme) {
			f, err := NewLocalFile(arg)
			if err != nil {
				return nil, err
			}
			handles = append(handles, f)
			continue
		}

		if client == nil {
			if r.S3 == nil {
				return nil, fmt.Errorf("s3 source %s given but no S3 client configured", arg)
			}
			c, err := r.S3(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to create S3 client: %w", err)
			}
			client = c
		}
		obj, err := NewS3Object(client, arg)
		if err != nil {
			return nil, err
		}
		handles = append(handles, obj)
	}
	return handles, nil
}
