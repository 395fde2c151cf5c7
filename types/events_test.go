package types //nolint:revive // types is a valid package name

import (
	"encoding/json"
	"testing"
)

func TestEventType_IsWire(t *testing.T) {
	tests := []struct {
		eventType EventType
		known     bool
		wire      bool
	}{
		{EventTypeStatus, true, true},
		{EventTypeThought, true, true},
		{EventTypeRetrieved, true, true},
		{EventTypeContext, true, true},
		{EventTypeFinal, true, true},
		{EventTypeError, true, true},
		{EventTypeDone, true, false},
		{EventType("token"), false, false},
		{EventType(""), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			if got := tt.eventType.IsKnown(); got != tt.known {
				t.Errorf("EventType(%q).IsKnown() = %v, want %v", tt.eventType, got, tt.known)
			}
			if got := tt.eventType.IsWire(); got != tt.wire {
				t.Errorf("EventType(%q).IsWire() = %v, want %v", tt.eventType, got, tt.wire)
			}
		})
	}
}

func TestEvent_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"status", StatusEvent("hi"), `{"type":"status","value":"hi"}`},
		{"retrieved zero", RetrievedEvent(0), `{"type":"retrieved","count":0}`},
		{"context index zero", ContextEvent(0, "snip"), `{"type":"context","index":0,"snippet":"snip"}`},
		{"final", FinalEvent("42"), `{"type":"final","answer":"42"}`},
		{"done", DoneEvent(), `{"type":"done"}`},
		{"stray fields", Event{Type: EventTypeFinal, Answer: "a", Value: "x"}, `{"type":"final","answer":"a"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvent_UnmarshalWirePayload(t *testing.T) {
	var e Event
	if err := json.Unmarshal([]byte(`{"type":"context","index":3,"snippet":"cats","extra":true}`), &e); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if e != ContextEvent(3, "cats") {
		t.Errorf("got %+v, want context(3, cats)", e)
	}
}

func TestEvent_Normalize(t *testing.T) {
	e := Event{Type: EventTypeRetrieved, Count: 4, Value: "ignored", Answer: "ignored"}
	if got := e.Normalize(); got != RetrievedEvent(4) {
		t.Errorf("Normalize() = %+v, want %+v", got, RetrievedEvent(4))
	}
}

func TestEvent_Text(t *testing.T) {
	if got := FinalEvent("answer").Text(); got != "answer" {
		t.Errorf("final Text() = %q", got)
	}
	if got := ContextEvent(1, "snippet").Text(); got != "snippet" {
		t.Errorf("context Text() = %q", got)
	}
	if got := StatusEvent("working").Text(); got != "working" {
		t.Errorf("status Text() = %q", got)
	}
}

func TestSessionState_IsTerminal(t *testing.T) {
	tests := []struct {
		state SessionState
		want  bool
	}{
		{SessionStateIdle, false},
		{SessionStateActive, false},
		{SessionStateCompleted, true},
		{SessionStateErrored, true},
		{SessionStateCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.want {
			t.Errorf("SessionState(%q).IsTerminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestUploadStatus_IsTerminal(t *testing.T) {
	for _, s := range []UploadStatus{UploadStatusQueued, UploadStatusUploading} {
		if s.IsTerminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
	for _, s := range []UploadStatus{UploadStatusDone, UploadStatusError} {
		if !s.IsTerminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
}
