package session

import (
	"sync"
	"time"
)

type StreamEvent struct {
	EventID  int64  `json:"event_id"`
	Event    string `json:"event"`
	BattleID string `json:"battle_id"`
	ServerTS int64  `json:"server_ts"`
	Data     any    `json:"data"`
}

// EventBuffer is a bounded per-battle log with live watchers. Slow watchers
// miss events rather than blocking writers.
type EventBuffer struct {
	mu       sync.Mutex
	battleID string
	nextID   int64
	max      int
	events   []StreamEvent
	watchers map[chan StreamEvent]struct{}
	closed   bool
}

func NewEventBuffer(battleID string, max int) *EventBuffer {
	if max <= 0 {
		max = 500
	}
	return &EventBuffer{
		battleID: battleID,
		max:      max,
		watchers: map[chan StreamEvent]struct{}{},
	}
}

func (b *EventBuffer) Append(event string, data any) StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return StreamEvent{}
	}
	b.nextID++
	ev := StreamEvent{
		EventID:  b.nextID,
		Event:    event,
		BattleID: b.battleID,
		ServerTS: time.Now().UnixMilli(),
		Data:     data,
	}
	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// ReplayAfter returns the retained events with an id greater than after.
func (b *EventBuffer) ReplayAfter(after int64) []StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]StreamEvent, 0, len(b.events))
	for _, ev := range b.events {
		if ev.EventID > after {
			out = append(out, ev)
		}
	}
	return out
}

func (b *EventBuffer) Subscribe() chan StreamEvent {
	ch := make(chan StreamEvent, 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *EventBuffer) Unsubscribe(ch chan StreamEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
	}
}

// Close detaches every watcher. Retained events stay readable.
func (b *EventBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
	}
}
