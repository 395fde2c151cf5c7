package adapter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pithecene-io/docent/log"
	"github.com/pithecene-io/docent/metrics"
	"github.com/pithecene-io/docent/runtime"
	"github.com/pithecene-io/docent/types"
)

type stubStreamer string

func (s stubStreamer) OpenStream(context.Context, types.AgentRequest) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

type stubAdapter struct {
	err       error
	published []*SessionCompletedEvent
}

func (a *stubAdapter) Publish(_ context.Context, ev *SessionCompletedEvent) error {
	a.published = append(a.published, ev)
	return a.err
}

func (a *stubAdapter) Close() error { return nil }

func TestNewSessionCompletedEvent(t *testing.T) {
	stream := "data: {\"type\":\"status\",\"value\":\"searching\"}\n\n" +
		"data: {\"type\":\"final\",\"answer\":\"fish\"}\n\n" +
		"data: [DONE]\n\n"
	s := runtime.NewStreamSession(stubStreamer(stream), runtime.SessionOptions{})
	s.Start(t.Context(), types.AgentRequest{Prompt: "what do cats eat?", TopK: 5})

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	ev := NewSessionCompletedEvent(s, "what do cats eat?", now)

	if ev.EventType != EventTypeSessionCompleted || ev.ContractVersion != types.ContractVersion {
		t.Errorf("envelope = %s/%s", ev.EventType, ev.ContractVersion)
	}
	if ev.SessionID != s.ID() || ev.State != "completed" {
		t.Errorf("session = %s/%s", ev.SessionID, ev.State)
	}
	if ev.Answer != "fish" || ev.Error != "" {
		t.Errorf("answer/error = %q/%q", ev.Answer, ev.Error)
	}
	if ev.EventCount != 3 {
		t.Errorf("event count = %d, want 3", ev.EventCount)
	}
	if ev.Timestamp != "2026-10-19T10:00:00Z" {
		t.Errorf("timestamp = %s, want UTC", ev.Timestamp)
	}
}

func TestCodecByName(t *testing.T) {
	for name, want := range map[string]Codec{"": JSON, "json": JSON, "msgpack": Msgpack} {
		got, err := CodecByName(name)
		if err != nil || got != want {
			t.Errorf("CodecByName(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := CodecByName("xml"); err == nil {
		t.Error("expected error for unknown codec")
	}
}

func TestBackoff(t *testing.T) {
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestNotify(t *testing.T) {
	var buf bytes.Buffer
	logger, err := log.New(log.Options{Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	collector := metrics.NewCollector("")
	ev := &SessionCompletedEvent{SessionID: "s-1"}

	ok := &stubAdapter{}
	Notify(t.Context(), ok, ev, logger, collector)
	failing := &stubAdapter{err: errors.New("webhook: failed after 4 attempts")}
	Notify(t.Context(), failing, ev, logger, collector)
	Notify(t.Context(), nil, ev, logger, collector)

	if len(ok.published) != 1 || len(failing.published) != 1 {
		t.Fatal("each adapter should receive exactly one publish")
	}
	snap := collector.Snapshot()
	if snap.NotifySuccess != 1 || snap.NotifyFailure != 1 {
		t.Errorf("notify success/failure = %d/%d, want 1/1", snap.NotifySuccess, snap.NotifyFailure)
	}
	if !strings.Contains(buf.String(), "completion notification failed") {
		t.Errorf("log = %s", buf.String())
	}
}
