// Package adapter defines the completion notification boundary.
//
// Adapters publish a notification to a downstream system after an agent
// session reaches a terminal state. Publication is best effort: a failed
// notification is logged and counted but never changes the session outcome.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/docent/log"
	"github.com/pithecene-io/docent/metrics"
	"github.com/pithecene-io/docent/runtime"
	"github.com/pithecene-io/docent/types"
)

// EventTypeSessionCompleted is the event_type of every notification.
const EventTypeSessionCompleted = "session_completed"

// SessionCompletedEvent is the payload published when a session ends.
type SessionCompletedEvent struct {
	ContractVersion string `json:"contract_version" msgpack:"contract_version"`
	EventType       string `json:"event_type" msgpack:"event_type"` // always "session_completed"
	SessionID       string `json:"session_id" msgpack:"session_id"`
	State           string `json:"state" msgpack:"state"` // completed, errored, cancelled
	Prompt          string `json:"prompt" msgpack:"prompt"`
	Answer          string `json:"answer,omitempty" msgpack:"answer,omitempty"`
	Error           string `json:"error,omitempty" msgpack:"error,omitempty"`
	EventCount      int    `json:"event_count" msgpack:"event_count"`
	DurationMs      int64  `json:"duration_ms" msgpack:"duration_ms"`
	Timestamp       string `json:"timestamp" msgpack:"timestamp"` // RFC 3339
}

// NewSessionCompletedEvent summarizes a terminal session.
// Answer is the last final event's answer; Error is the last error event's value.
func NewSessionCompletedEvent(s *runtime.StreamSession, prompt string, now time.Time) *SessionCompletedEvent {
	events := s.Events()
	ev := &SessionCompletedEvent{
		ContractVersion: types.ContractVersion,
		EventType:       EventTypeSessionCompleted,
		SessionID:       s.ID(),
		State:           string(s.State()),
		Prompt:          prompt,
		EventCount:      len(events),
		DurationMs:      s.Duration().Milliseconds(),
		Timestamp:       now.UTC().Format(time.RFC3339),
	}
	for _, e := range events {
		switch e.Type {
		case types.EventTypeFinal:
			ev.Answer = e.Answer
		case types.EventTypeError:
			ev.Error = e.Value
		}
	}
	return ev
}

// Adapter publishes session completion events to a downstream system.
type Adapter interface {
	// Publish sends a session completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *SessionCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Codec serializes notification payloads.
type Codec interface {
	Marshal(v any) ([]byte, error)
	// ContentType is the media type of the encoded payload.
	ContentType() string
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonCodec) ContentType() string           { return "application/json" }

type msgpackCodec struct{}

func (msgpackCodec) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }
func (msgpackCodec) ContentType() string           { return "application/msgpack" }

// JSON encodes payloads as JSON.
var JSON Codec = jsonCodec{}

// Msgpack encodes payloads as MessagePack.
var Msgpack Codec = msgpackCodec{}

// CodecByName returns the codec for "json" (or empty) and "msgpack".
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return Msgpack, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (expected json or msgpack)", name)
	}
}

// Backoff returns the delay before retry attempt n (n >= 1): 500ms, 1s, 2s...
func Backoff(n int) time.Duration {
	return time.Duration(1<<uint(n-1)) * 500 * time.Millisecond
}

// Notify publishes event and records the outcome. It never returns an error.
func Notify(ctx context.Context, a Adapter, event *SessionCompletedEvent, logger *log.Logger, collector *metrics.Collector) {
	if a == nil {
		return
	}
	if err := a.Publish(ctx, event); err != nil {
		collector.IncNotifyFailure()
		logger.Warn("completion notification failed", map[string]any{
			"session_id": event.SessionID,
			"error":      err.Error(),
		})
		return
	}
	collector.IncNotifySuccess()
	logger.Debug("completion notification sent", map[string]any{
		"session_id": event.SessionID,
	})
}
