package runtime

import (
	"testing"

	"github.com/pithecene-io/docent/types"
)

func TestEventLog_SnapshotIsCopy(t *testing.T) {
	l := newEventLog()
	l.append(types.StatusEvent("a"))

	snap := l.Snapshot()
	snap[0] = types.StatusEvent("mutated")

	if got := l.Snapshot()[0]; got != types.StatusEvent("a") {
		t.Errorf("log changed through snapshot: %+v", got)
	}
}

func TestEventLog_SubscribeAndClose(t *testing.T) {
	l := newEventLog()
	l.append(types.StatusEvent("before"))

	ch, unsubscribe := l.Subscribe(4)
	defer unsubscribe()
	l.append(types.StatusEvent("a"), types.FinalEvent("b"))
	l.close()

	var got []types.Event
	for ev := range ch {
		got = append(got, ev)
	}
	if len(got) != 2 || got[0].Value != "a" || got[1].Answer != "b" {
		t.Fatalf("subscriber got %+v, want events appended after Subscribe", got)
	}
	if l.Len() != 3 {
		t.Errorf("Len = %d, want 3", l.Len())
	}

	late, _ := l.Subscribe(1)
	if _, ok := <-late; ok {
		t.Error("subscription after close should be closed")
	}
}

func TestEventLog_UnsubscribeIsIdempotent(t *testing.T) {
	l := newEventLog()
	ch, unsubscribe := l.Subscribe(1)
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	l.append(types.StatusEvent("x"))
	l.close()
}
