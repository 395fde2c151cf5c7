package runtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pithecene-io/docent/filesrc"
	"github.com/pithecene-io/docent/log"
	"github.com/pithecene-io/docent/metrics"
	"github.com/pithecene-io/docent/types"
)

// Uploader issues one ingest request for a file.
type Uploader interface {
	Ingest(ctx context.Context, file filesrc.Handle) error
}

// UploadOptions configures an UploadQueue.
type UploadOptions struct {
	Logger    *log.Logger
	Collector *metrics.Collector
}

type uploadEntry struct {
	item   types.UploadItem
	handle filesrc.Handle
}

// UploadQueue drives submitted files through ingest one at a time.
//   - Items keep submission order
//   - At most one request is in flight
//   - A failed item does not stop the items after it
//   - No retries, and an issued request is never cancelled
type UploadQueue struct {
	uploader Uploader
	logger   *log.Logger
	metrics  *metrics.Collector

	mu      sync.Mutex
	entries []*uploadEntry
	next    int
	running bool
	idle    chan struct{}
}

// NewUploadQueue creates an empty queue.
func NewUploadQueue(uploader Uploader, opts UploadOptions) *UploadQueue {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	idle := make(chan struct{})
	close(idle)
	return &UploadQueue{
		uploader: uploader,
		logger:   logger,
		metrics:  opts.Collector,
		idle:     idle,
	}
}

// Enqueue adds one queued item per file and returns their IDs in order.
// It returns without waiting for any upload. Requests run detached from
// ctx's cancellation but keep its values.
func (q *UploadQueue) Enqueue(ctx context.Context, files []filesrc.Handle) []string {
	if len(files) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]string, 0, len(files))
	for _, f := range files {
		entry := &uploadEntry{
			item: types.UploadItem{
				ID:     uuid.NewString(),
				Name:   f.Name(),
				Source: f.Source(),
				Status: types.UploadStatusQueued,
			},
			handle: f,
		}
		q.entries = append(q.entries, entry)
		ids = append(ids, entry.item.ID)
	}

	if !q.running {
		q.running = true
		q.idle = make(chan struct{})
		go q.drain(context.WithoutCancel(ctx), q.idle)
	}
	return ids
}

// drain processes queued items until none are left.
func (q *UploadQueue) drain(ctx context.Context, idle chan struct{}) {
	for {
		entry := q.take()
		if entry == nil {
			close(idle)
			return
		}

		err := q.uploader.Ingest(ctx, entry.handle)

		status := types.UploadStatusDone
		if err != nil {
			status = types.UploadStatusError
			q.metrics.IncUploadFailed()
			q.logger.Warn("upload failed", map[string]any{
				"item_id": entry.item.ID,
				"name":    entry.item.Name,
				"error":   err.Error(),
			})
		} else {
			q.metrics.IncUploadSucceeded()
			q.logger.Info("upload done", map[string]any{
				"item_id": entry.item.ID,
				"name":    entry.item.Name,
			})
		}
		q.setStatus(entry, status)
	}
}

// take marks the next queued item uploading and returns it, or clears the
// running flag and returns nil when the queue is exhausted.
func (q *UploadQueue) take() *uploadEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.entries) {
		q.running = false
		return nil
	}
	entry := q.entries[q.next]
	q.next++
	entry.item.Status = types.UploadStatusUploading
	return entry
}

func (q *UploadQueue) setStatus(entry *uploadEntry, status types.UploadStatus) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry.item.Status = status
}

// Items returns a snapshot of every item in submission order.
func (q *UploadQueue) Items() []types.UploadItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]types.UploadItem, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.item
	}
	return out
}

// Wait blocks until every enqueued item is terminal or ctx is done.
func (q *UploadQueue) Wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
