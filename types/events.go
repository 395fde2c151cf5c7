// Package types defines core domain types for the docent client runtime.
//
//nolint:revive // types is a common Go package naming convention
package types

import "encoding/json"

// EventType represents the kind of an agent stream event.
type EventType string

// Event type constants. All but EventTypeDone appear as the "type" field of a
// frame payload; EventTypeDone is derived from the termination sentinel.
const (
	EventTypeStatus    EventType = "status"
	EventTypeThought   EventType = "thought"
	EventTypeRetrieved EventType = "retrieved"
	EventTypeContext   EventType = "context"
	EventTypeFinal     EventType = "final"
	EventTypeError     EventType = "error"
	EventTypeDone      EventType = "done"
)

// IsKnown reports whether e is one of the event kinds the runtime understands.
func (e EventType) IsKnown() bool {
	switch e {
	case EventTypeStatus, EventTypeThought, EventTypeRetrieved, EventTypeContext,
		EventTypeFinal, EventTypeError, EventTypeDone:
		return true
	}
	return false
}

// IsWire reports whether e may arrive as a JSON payload "type" field.
// done only ever comes from the sentinel.
func (e EventType) IsWire() bool {
	return e.IsKnown() && e != EventTypeDone
}

// Event is a single typed unit derived from one stream frame.
//
// The populated fields depend on Type:
//   - status, thought, error: Value
//   - retrieved: Count
//   - context: Index, Snippet
//   - final: Answer
//   - done: none
type Event struct {
	Type    EventType `json:"type" msgpack:"type"`
	Value   string    `json:"value,omitempty" msgpack:"value,omitempty"`
	Count   int       `json:"count,omitempty" msgpack:"count,omitempty"`
	Index   int       `json:"index,omitempty" msgpack:"index,omitempty"`
	Snippet string    `json:"snippet,omitempty" msgpack:"snippet,omitempty"`
	Answer  string    `json:"answer,omitempty" msgpack:"answer,omitempty"`
}

// StatusEvent returns a status event.
func StatusEvent(text string) Event { return Event{Type: EventTypeStatus, Value: text} }

// ThoughtEvent returns a thought event.
func ThoughtEvent(text string) Event { return Event{Type: EventTypeThought, Value: text} }

// RetrievedEvent returns a retrieved event.
func RetrievedEvent(count int) Event { return Event{Type: EventTypeRetrieved, Count: count} }

// ContextEvent returns a context event.
func ContextEvent(index int, snippet string) Event {
	return Event{Type: EventTypeContext, Index: index, Snippet: snippet}
}

// FinalEvent returns a final answer event.
func FinalEvent(answer string) Event { return Event{Type: EventTypeFinal, Answer: answer} }

// ErrorEvent returns an error event.
func ErrorEvent(message string) Event { return Event{Type: EventTypeError, Value: message} }

// DoneEvent returns the done event.
func DoneEvent() Event { return Event{Type: EventTypeDone} }

// Text returns the human-readable body of the event regardless of kind.
func (e Event) Text() string {
	switch e.Type {
	case EventTypeFinal:
		return e.Answer
	case EventTypeContext:
		return e.Snippet
	default:
		return e.Value
	}
}

// Normalize clears the fields that do not belong to the event's kind.
// Payloads may carry extra keys; they are not part of the event.
func (e Event) Normalize() Event {
	switch e.Type {
	case EventTypeStatus, EventTypeThought, EventTypeError:
		return Event{Type: e.Type, Value: e.Value}
	case EventTypeRetrieved:
		return Event{Type: e.Type, Count: e.Count}
	case EventTypeContext:
		return Event{Type: e.Type, Index: e.Index, Snippet: e.Snippet}
	case EventTypeFinal:
		return Event{Type: e.Type, Answer: e.Answer}
	default:
		return Event{Type: e.Type}
	}
}

// MarshalJSON emits only the fields of the event's kind. Index and count are
// always written for the kinds that own them, including zero values.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventTypeRetrieved:
		return json.Marshal(struct {
			Type  EventType `json:"type"`
			Count int       `json:"count"`
		}{e.Type, e.Count})
	case EventTypeContext:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Index   int       `json:"index"`
			Snippet string    `json:"snippet"`
		}{e.Type, e.Index, e.Snippet})
	case EventTypeFinal:
		return json.Marshal(struct {
			Type   EventType `json:"type"`
			Answer string    `json:"answer"`
		}{e.Type, e.Answer})
	case EventTypeDone:
		return json.Marshal(struct {
			Type EventType `json:"type"`
		}{e.Type})
	default:
		return json.Marshal(struct {
			Type  EventType `json:"type"`
			Value string    `json:"value"`
		}{e.Type, e.Value})
	}
}
