package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/docent/log"
	"github.com/pithecene-io/docent/metrics"
	"github.com/pithecene-io/docent/sse"
	"github.com/pithecene-io/docent/types"
)

// DefaultReadBufferSize is the size of a single body read.
const DefaultReadBufferSize = 4096

// Streamer opens the agent stream.
// A non-nil error means the response is not usable as a stream.
type Streamer interface {
	OpenStream(ctx context.Context, req types.AgentRequest) (io.ReadCloser, error)
}

// SessionOptions configures a StreamSession.
type SessionOptions struct {
	// Logger receives session diagnostics (defaults to a no-op logger).
	Logger *log.Logger
	// Collector counts session activity. Nil disables counting.
	Collector *metrics.Collector
	// ReportCancellation appends an error event describing the
	// cancellation. By default a cancelled session keeps exactly the events
	// of the frames processed before the cancel.
	ReportCancellation bool
	// Diagnostics receives every frame the decoder dropped.
	Diagnostics sse.DiagnosticFunc
	// BufferSize is the size of a single body read (default 4096).
	BufferSize int
}

// StreamSession owns one agent stream request from start to a terminal state.
//
// Lifecycle: idle → active → completed | errored | cancelled.
//   - Events are appended in the order their frames completed
//   - A transport or read failure appends exactly one error event
//   - The sentinel's done event is the last event appended
//   - Cancellation is checked before every read
//   - A cancelled session holds exactly the events of the frames processed
//     before the cancel; the cancellation error event is only appended with
//     SessionOptions.ReportCancellation
//   - Cancel before Start is remembered: Start then ends cancelled without
//     issuing the request
type StreamSession struct {
	id       string
	streamer Streamer
	decoder  *sse.FrameDecoder
	log      *EventLog
	opts     SessionOptions
	logger   *log.Logger

	mu              sync.Mutex
	state           types.SessionState
	cancelRequested bool
	cancel    context.CancelFunc
	err       error
	startedAt time.Time
	endedAt   time.Time
}

// NewStreamSession creates an idle session.
func NewStreamSession(streamer Streamer, opts SessionOptions) *StreamSession {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultReadBufferSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	s := &StreamSession{
		id:       uuid.NewString(),
		streamer: streamer,
		log:      newEventLog(),
		opts:     opts,
		state:    types.SessionStateIdle,
	}
	s.logger = logger.WithSession(s.id)
	s.decoder = sse.NewFrameDecoder(sse.WithDiagnostics(s.onDrop))
	return s
}

// ID returns the session identity.
func (s *StreamSession) ID() string { return s.id }

// Log returns the session's event log for read-only consumption.
func (s *StreamSession) Log() *EventLog { return s.log }

// Events returns a snapshot of the events appended so far.
func (s *StreamSession) Events() []types.Event { return s.log.Snapshot() }

// State returns the current state.
func (s *StreamSession) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the *SessionError that ended the session, or nil.
func (s *StreamSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Duration returns how long the session was active. Zero while not terminal.
func (s *StreamSession) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endedAt.IsZero() {
		return 0
	}
	return s.endedAt.Sub(s.startedAt)
}

// Cancel asks the session to stop at its next suspension point. On an idle
// session the request is kept until Start. Safe to call from any goroutine,
// any number of times. No-op on a terminal session.
func (s *StreamSession) Cancel() {
	s.mu.Lock()
	var cancel context.CancelFunc
	switch s.state {
	case types.SessionStateIdle:
		s.cancelRequested = true
	case types.SessionStateActive:
		cancel = s.cancel
	}
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Start issues the stream request and reads it until a terminal state.
// It blocks; run it on its own goroutine for concurrent presentation.
// A session is single use: Start on a non-idle session returns the current
// state and does nothing.
func (s *StreamSession) Start(ctx context.Context, req types.AgentRequest) types.SessionState {
	s.mu.Lock()
	if s.state != types.SessionStateIdle {
		state := s.state
		s.mu.Unlock()
		return state
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = types.SessionStateActive
	s.startedAt = time.Now()
	if s.cancelRequested {
		cancel()
	}
	s.mu.Unlock()
	defer cancel()

	s.opts.Collector.IncSessionStarted()
	s.logger.Info("session started", map[string]any{
		"top_k": req.TopK,
	})

	if ctx.Err() != nil {
		return s.finish(&SessionError{Kind: SessionErrorCanceled, Err: ctx.Err()})
	}

	body, err := s.streamer.OpenStream(ctx, req)
	if err == nil && body == nil {
		err = errors.New("response has no body")
	}
	if err != nil {
		if ctx.Err() != nil {
			return s.finish(&SessionError{Kind: SessionErrorCanceled, Err: ctx.Err()})
		}
		return s.finish(&SessionError{
			Kind: SessionErrorTransport,
			Err:  fmt.Errorf("stream request failed: %w", err),
		})
	}

	// Closing the body unblocks a read that does not observe ctx itself.
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer func() {
		if stop() {
			_ = body.Close()
		}
	}()

	return s.finish(s.read(ctx, body))
}

// read runs the read loop. Returns nil on a clean end of data or sentinel.
func (s *StreamSession) read(ctx context.Context, body io.Reader) error {
	buf := make([]byte, s.opts.BufferSize)
	for {
		select {
		case <-ctx.Done():
			return &SessionError{Kind: SessionErrorCanceled, Err: ctx.Err()}
		default:
		}

		n, err := body.Read(buf)
		if ctx.Err() != nil {
			return &SessionError{Kind: SessionErrorCanceled, Err: ctx.Err()}
		}
		if n > 0 {
			s.opts.Collector.AddChunk(n)
			events := s.decoder.Feed(buf[:n])
			s.log.append(events...)
			s.opts.Collector.AddEvents(len(events))
			if s.decoder.Done() {
				s.logger.Debug("sentinel received", nil)
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.decoder.Finish()
				return nil
			}
			return &SessionError{
				Kind: SessionErrorStreamRead,
				Err:  fmt.Errorf("stream read failed: %w", err),
			}
		}
	}
}

// finish moves the session to its terminal state.
func (s *StreamSession) finish(err error) types.SessionState {
	state := types.SessionStateCompleted
	switch {
	case err == nil:
		s.opts.Collector.IncSessionCompleted()
		s.logger.Info("session completed", map[string]any{
			"events": s.log.Len(),
		})
	case IsCanceledError(err):
		state = types.SessionStateCancelled
		if s.opts.ReportCancellation {
			s.appendError(err)
		}
		s.opts.Collector.IncSessionCancelled()
		s.logger.Info("session cancelled", map[string]any{
			"events": s.log.Len(),
		})
	default:
		state = types.SessionStateErrored
		s.appendError(err)
		s.opts.Collector.IncSessionErrored()
		s.logger.Error("session errored", map[string]any{
			"error": err.Error(),
		})
	}

	s.mu.Lock()
	s.state = state
	s.err = err
	s.endedAt = time.Now()
	s.mu.Unlock()

	s.log.close()
	return state
}

func (s *StreamSession) appendError(err error) {
	s.log.append(types.ErrorEvent(err.Error()))
	s.opts.Collector.AddEvents(1)
}

// onDrop counts and logs a dropped frame, then forwards it to the caller's sink.
func (s *StreamSession) onDrop(fe *sse.FrameError) {
	s.opts.Collector.IncFrameDropped(fe.Kind.String())
	s.logger.Debug("frame dropped", map[string]any{
		"kind":  fe.Kind.String(),
		"error": fe.Error(),
	})
	if s.opts.Diagnostics != nil {
		s.opts.Diagnostics(fe)
	}
}
