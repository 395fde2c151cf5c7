// Package metrics provides in-process counters for sessions, uploads and queries.
//
// The Collector is a leaf package with no internal dependencies. Frame drop
// kinds are recorded as strings to keep it free of the sse package.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsStarted   int64 `json:"sessions_started"`
	SessionsCompleted int64 `json:"sessions_completed"`
	SessionsErrored   int64 `json:"sessions_errored"`
	SessionsCancelled int64 `json:"sessions_cancelled"`

	// Stream decoding
	ChunksRead     int64            `json:"chunks_read"`
	BytesRead      int64            `json:"bytes_read"`
	EventsAppended int64            `json:"events_appended"`
	FramesDropped  int64            `json:"frames_dropped"`
	DroppedByKind  map[string]int64 `json:"dropped_by_kind"`

	// Uploads
	UploadsSucceeded int64 `json:"uploads_succeeded"`
	UploadsFailed    int64 `json:"uploads_failed"`

	// Queries
	QueriesSucceeded int64 `json:"queries_succeeded"`
	QueriesFailed    int64 `json:"queries_failed"`

	// Completion notifications
	NotifySuccess int64 `json:"notify_success"`
	NotifyFailure int64 `json:"notify_failure"`

	// Dimension (informational, set at construction)
	APIBase string `json:"api_base"`
}

// Collector accumulates counters for one CLI invocation.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	sessionsStarted   int64
	sessionsCompleted int64
	sessionsErrored   int64
	sessionsCancelled int64

	chunksRead     int64
	bytesRead      int64
	eventsAppended int64
	framesDropped  int64
	droppedByKind  map[string]int64

	uploadsSucceeded int64
	uploadsFailed    int64

	queriesSucceeded int64
	queriesFailed    int64

	notifySuccess int64
	notifyFailure int64

	apiBase string
}

// NewCollector creates a Collector labelled with the backend base URL.
func NewCollector(apiBase string) *Collector {
	return &Collector{
		droppedByKind: make(map[string]int64),
		apiBase:       apiBase,
	}
}

// inc applies fn under the lock. No-op on a nil collector.
func (c *Collector) inc(fn func()) {
	if c == nil {
		return
	}
	c.mu.Lock()
	fn()
	c.mu.Unlock()
}

// --- Session lifecycle ---

// IncSessionStarted records a session leaving idle.
func (c *Collector) IncSessionStarted() { c.inc(func() { c.sessionsStarted++ }) }

// IncSessionCompleted records a session that reached completed.
func (c *Collector) IncSessionCompleted() { c.inc(func() { c.sessionsCompleted++ }) }

// IncSessionErrored records a session that reached errored.
func (c *Collector) IncSessionErrored() { c.inc(func() { c.sessionsErrored++ }) }

// IncSessionCancelled records a session that reached cancelled.
func (c *Collector) IncSessionCancelled() { c.inc(func() { c.sessionsCancelled++ }) }

// --- Stream decoding ---

// AddChunk records one transport read of n bytes.
func (c *Collector) AddChunk(n int) {
	c.inc(func() {
		c.chunksRead++
		c.bytesRead += int64(n)
	})
}

// AddEvents records n events appended to an event log.
func (c *Collector) AddEvents(n int) { c.inc(func() { c.eventsAppended += int64(n) }) }

// IncFrameDropped records a frame that produced no event.
func (c *Collector) IncFrameDropped(kind string) {
	c.inc(func() {
		c.framesDropped++
		c.droppedByKind[kind]++
	})
}

// --- Uploads ---

// IncUploadSucceeded records an upload item that reached done.
func (c *Collector) IncUploadSucceeded() { c.inc(func() { c.uploadsSucceeded++ }) }

// IncUploadFailed records an upload item that reached error.
func (c *Collector) IncUploadFailed() { c.inc(func() { c.uploadsFailed++ }) }

// --- Queries ---

// IncQuerySucceeded records a query that returned results.
func (c *Collector) IncQuerySucceeded() { c.inc(func() { c.queriesSucceeded++ }) }

// IncQueryFailed records a query whose failure was absorbed.
func (c *Collector) IncQueryFailed() { c.inc(func() { c.queriesFailed++ }) }

// --- Notifications ---

// IncNotifySuccess records a delivered completion notification.
func (c *Collector) IncNotifySuccess() { c.inc(func() { c.notifySuccess++ }) }

// IncNotifyFailure records a completion notification that was not delivered.
func (c *Collector) IncNotifyFailure() { c.inc(func() { c.notifyFailure++ }) }

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
// The Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := make(map[string]int64, len(c.droppedByKind))
	for k, v := range c.droppedByKind {
		dropped[k] = v
	}

	return Snapshot{
		SessionsStarted:   c.sessionsStarted,
		SessionsCompleted: c.sessionsCompleted,
		SessionsErrored:   c.sessionsErrored,
		SessionsCancelled: c.sessionsCancelled,

		ChunksRead:     c.chunksRead,
		BytesRead:      c.bytesRead,
		EventsAppended: c.eventsAppended,
		FramesDropped:  c.framesDropped,
		DroppedByKind:  dropped,

		UploadsSucceeded: c.uploadsSucceeded,
		UploadsFailed:    c.uploadsFailed,

		QueriesSucceeded: c.queriesSucceeded,
		QueriesFailed:    c.queriesFailed,

		NotifySuccess: c.notifySuccess,
		NotifyFailure: c.notifyFailure,

		APIBase: c.apiBase,
	}
}
