package runtime

import (
	"sync"

	"github.com/pithecene-io/docent/types"
)

// EventLog is the ordered, append-only record of one session's events.
// Only the owning StreamSession appends; everyone else reads snapshots or
// subscribes.
type EventLog struct {
	mu     sync.Mutex
	events []types.Event
	subs   map[int]chan types.Event
	nextID int
	closed bool
}

func newEventLog() *EventLog {
	return &EventLog{subs: make(map[int]chan types.Event)}
}

// append adds events in order and fans them out to subscribers.
// A subscriber whose buffer is full misses the event; it can recover the
// full history from Snapshot.
func (l *EventLog) append(events ...types.Event) {
	if len(events) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
	for _, ch := range l.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// close ends every subscription. Later subscribers get a closed channel.
func (l *EventLog) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for id, ch := range l.subs {
		close(ch)
		delete(l.subs, id)
	}
}

// Snapshot returns a copy of the events appended so far.
func (l *EventLog) Snapshot() []types.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of appended events.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Subscribe returns a channel receiving every event appended after the call,
// and a function that ends the subscription. The channel is closed when the
// session reaches a terminal state or the subscription is ended.
func (l *EventLog) Subscribe(buffer int) (<-chan types.Event, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan types.Event, buffer)
	if l.closed {
		close(ch)
		return ch, func() {}
	}

	id := l.nextID
	l.nextID++
	l.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if sub, ok := l.subs[id]; ok {
				close(sub)
				delete(l.subs, id)
			}
		})
	}
}
