package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/docent/adapter"
	"github.com/pithecene-io/docent/iox"
)

func testEvent() *adapter.SessionCompletedEvent {
	return &adapter.SessionCompletedEvent{
		ContractVersion: "0.4.2",
		EventType:       adapter.EventTypeSessionCompleted,
		SessionID:       "5b0c1c36-7f0e-4a1e-9a51-0f6f3a1d2c11",
		State:           "completed",
		Prompt:          "what do cats eat?",
		Answer:          "mostly fish",
		EventCount:      6,
		DurationMs:      1500,
		Timestamp:       "2026-10-19T12:00:00Z",
	}
}

func newAdapter(t *testing.T, cfg Config) *Adapter {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(a))
	return a
}

func TestPublish_JSON(t *testing.T) {
	var received adapter.SessionCompletedEvent
	var authHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		authHeader = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("unmarshal: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := newAdapter(t, Config{
		URL:     ts.URL,
		Headers: map[string]string{"Authorization": "Bearer test-token"},
	})
	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if received.SessionID != testEvent().SessionID {
		t.Errorf("session_id = %s", received.SessionID)
	}
	if received.EventType != "session_completed" || received.State != "completed" {
		t.Errorf("event_type/state = %s/%s", received.EventType, received.State)
	}
	if received.Answer != "mostly fish" {
		t.Errorf("answer = %q", received.Answer)
	}
	if authHeader != "Bearer test-token" {
		t.Errorf("expected Bearer test-token, got %s", authHeader)
	}
}

func TestPublish_Msgpack(t *testing.T) {
	var received adapter.SessionCompletedEvent
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/msgpack" {
			t.Errorf("expected application/msgpack, got %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := msgpack.Unmarshal(body, &received); err != nil {
			t.Errorf("unmarshal: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	a := newAdapter(t, Config{URL: ts.URL, Codec: adapter.Msgpack})
	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if received.EventCount != 6 || received.Prompt != "what do cats eat?" {
		t.Errorf("received = %+v", received)
	}
}

func TestPublish_StatusHandling(t *testing.T) {
	tests := []struct {
		name         string
		status       func(attempt int32) int
		retries      int
		wantErr      bool
		wantAttempts int32
	}{
		{"200", func(int32) int { return 200 }, 0, false, 1},
		{"201", func(int32) int { return 201 }, 0, false, 1},
		{"204", func(int32) int { return 204 }, 0, false, 1},
		{"recovers after two 500s", func(n int32) int {
			if n < 3 {
				return 500
			}
			return 200
		}, 3, false, 3},
		{"500 exhausts retries", func(int32) int { return 500 }, 2, true, 3},
		{"503 exhausts retries", func(int32) int { return 503 }, 2, true, 3},
		{"400 is not retried", func(int32) int { return 400 }, 3, true, 1},
		{"401 is not retried", func(int32) int { return 401 }, 3, true, 1},
		{"404 is not retried", func(int32) int { return 404 }, 3, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status(attempts.Add(1)))
			}))
			defer ts.Close()

			a := newAdapter(t, Config{URL: ts.URL, Retries: tt.retries, Timeout: 5 * time.Second})
			err := a.Publish(t.Context(), testEvent())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got := attempts.Load(); got != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}
		})
	}
}

func TestPublish_ContextCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := newAdapter(t, Config{URL: ts.URL, Timeout: 10 * time.Second})

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	if err := a.Publish(ctx, testEvent()); err == nil {
		t.Fatal("expected error on canceled context")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := New(Config{URL: "http://example.com", Retries: -1}); err == nil {
		t.Error("expected error for negative retries")
	}

	a, err := New(Config{URL: "http://example.com"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.config.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, a.config.Timeout)
	}
	if a.config.Codec != adapter.JSON {
		t.Error("expected JSON codec by default")
	}
}
