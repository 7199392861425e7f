// Package bus is a channel-backed event source for an actor harness: a
// mutex-guarded ring buffer of pending events, with a notification
// channel the actor's event loop can select on instead of busy-polling.
package bus

import (
	"sync"

	"github.com/arcstate/hsm"
	"github.com/arcstate/hsm/pool"
)

// Queue is a bounded, mutex-guarded ring buffer of pending events. Push
// is safe to call from any goroutine (typically an I/O or network
// reader); PopEvent and HasEvents are intended to be called from the
// actor's single event-processing goroutine.
type Queue struct {
	mu     sync.Mutex
	ring   []hsm.Event
	head   int
	count  int
	notify chan struct{}

	arena   *pool.Arena
	payload int // size in bytes reserved per event in arena, 0 if unused
}

// New creates a Queue holding up to capacity pending events.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		ring:   make([]hsm.Event, capacity),
		notify: make(chan struct{}, 1),
	}
}

// NewPooled is like New, but additionally carves payload-byte buffers for
// event data out of arena as events are pushed, via PushPooled, avoiding
// a heap allocation per event in steady state.
func NewPooled(capacity int, arena *pool.Arena, payload int) *Queue {
	q := New(capacity)
	q.arena = arena
	q.payload = payload
	return q
}

// HasEvents reports whether at least one event is pending.
func (q *Queue) HasEvents() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count > 0
}

// PopEvent removes and returns the oldest pending event, if any.
func (q *Queue) PopEvent() (hsm.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return hsm.Event{}, false
	}
	ev := q.ring[q.head]
	q.head = (q.head + 1) % len(q.ring)
	q.count--
	return ev, true
}

// NotifyChan returns a channel that receives a value after each Push; at
// most one notification is buffered, so several pushes may coalesce into
// one. The actor's event loop selects on it instead of polling HasEvents.
func (q *Queue) NotifyChan() <-chan struct{} {
	return q.notify
}

// Push appends ev to the queue, overwriting the oldest pending event if
// the queue is already full (the ring buffer favors freshness over
// completeness, matching an actor's "process the latest" semantics for a
// saturated inbox).
func (q *Queue) Push(ev hsm.Event) {
	q.mu.Lock()
	full := q.count == len(q.ring)
	if full {
		q.head = (q.head + 1) % len(q.ring)
	} else {
		q.count++
	}
	tail := (q.head + q.count - 1) % len(q.ring)
	q.ring[tail] = ev
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// PushPooled is like Push, but copies data into a payload-byte buffer
// carved from the queue's arena rather than retaining the caller's slice,
// returning false if the arena has no room. Queue must have been created
// with NewPooled.
func (q *Queue) PushPooled(id int, data []byte) bool {
	if q.arena == nil {
		panic("bus: PushPooled called on a Queue without a pool.Arena")
	}
	buf, err := q.arena.Alloc(q.payload, 1)
	if err != nil {
		return false
	}
	n := copy(buf, data)
	q.Push(hsm.Event{Id: id, Data: buf[:n]})
	return true
}
