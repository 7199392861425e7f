// Package actor is a concurrency harness running one hsm.Instance against
// an event source and a periodic clock: one mutex serializes delivery and
// update, one condition variable parks the event loop while the source
// reports nothing pending, and two auxiliary goroutines (a bus pump and a
// periodic ticker) feed it.
package actor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arcstate/hsm"
)

// ActorStatus reports the lifecycle state of an Actor's Run loop. An
// application's extended state type is free to expose its own copy (set
// via the StatusFunc hook) so entry/exit/guard code can observe it without
// reaching back into the Actor.
type ActorStatus int

const (
	// IDLE is the status before Run is first called.
	IDLE ActorStatus = iota
	// RUN is the status for the duration of Run's event loop.
	RUN
	// STOP is the status after Run returns because its context was
	// canceled or Stop was called.
	STOP
	// ERROR is defined for completeness; Run never sets it.
	ERROR
	// PANIC is the status after Run's event loop recovered a panic from a
	// guard, action, or hook.
	PANIC
)

func (s ActorStatus) String() string {
	switch s {
	case IDLE:
		return "IDLE"
	case RUN:
		return "RUN"
	case STOP:
		return "STOP"
	case ERROR:
		return "ERROR"
	case PANIC:
		return "PANIC"
	default:
		return "UNKNOWN"
	}
}

// EventSource is what an Actor pulls events from. *bus.Queue satisfies it.
type EventSource interface {
	HasEvents() bool
	PopEvent() (hsm.Event, bool)
	NotifyChan() <-chan struct{}
}

// Actor drives one hsm.Instance[E] to completion against an EventSource
// and a clock, serializing all access to the instance behind a single
// mutex.
type Actor[E any] struct {
	Instance *hsm.Instance[E]
	Source   EventSource
	Config   Config
	Log      *slog.Logger

	// StatusFunc, if set, is called whenever the actor's status changes,
	// letting application code mirror it onto its own extended state.
	StatusFunc func(ActorStatus)

	mu       sync.Mutex
	cond     *sync.Cond
	status   atomic.Int32
	stopFlag atomic.Bool
}

// New creates an Actor driving ins, pulling events from source, under
// cfg. The actor logs through slog.Default() unless Log is reassigned.
func New[E any](ins *hsm.Instance[E], source EventSource, cfg Config) *Actor[E] {
	a := &Actor[E]{
		Instance: ins,
		Source:   source,
		Config:   cfg,
		Log:      slog.Default(),
	}
	a.cond = sync.NewCond(&a.mu)
	a.status.Store(int32(IDLE))
	ins.SetDeferredQueueBound(cfg.DeferredQueueBound)
	ins.SetDeferredOverflowPolicy(cfg.overflowPolicy())
	if cfg.MaxAnonymousChain > 0 {
		ins.SetMaxAnonymousChain(cfg.MaxAnonymousChain)
	}
	return a
}

// Status returns the actor's current lifecycle status.
func (a *Actor[E]) Status() ActorStatus {
	return ActorStatus(a.status.Load())
}

func (a *Actor[E]) setStatus(s ActorStatus) {
	a.status.Store(int32(s))
	if a.StatusFunc != nil {
		a.StatusFunc(s)
	}
}

// Stop signals Run's event loop to exit at its next opportunity.
func (a *Actor[E]) Stop() {
	a.stopFlag.Store(true)
	a.cond.L.Lock()
	a.cond.Broadcast()
	a.cond.L.Unlock()
}

// Deliver delivers ev to the underlying instance, serialized against any
// concurrent Update or other Deliver call, and wakes the event loop if it
// is parked waiting for work.
func (a *Actor[E]) Deliver(ev hsm.Event) (res hsm.ProcessResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.recoverPanic()
	res = a.Instance.Deliver(ev)
	a.cond.Broadcast()
	return res
}

// Is reports whether s is on the instance's active path, serialized
// against concurrent Deliver/Update.
func (a *Actor[E]) Is(s *hsm.State[E]) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Instance.Is(s)
}

func (a *Actor[E]) recoverPanic() {
	if r := recover(); r != nil {
		a.setStatus(PANIC)
		a.Log.Error("actor: recovered panic", "panic", r)
	}
}

// Run starts the bus pump and periodic-update goroutines, then runs the
// event loop on the calling goroutine until ctx is canceled or Stop is
// called. Run calls Instance.Initialize before entering the loop.
func (a *Actor[E]) Run(ctx context.Context) {
	a.mu.Lock()
	a.Instance.Initialize()
	a.mu.Unlock()

	a.setStatus(RUN)
	defer func() {
		if a.Status() == RUN {
			a.setStatus(STOP)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go a.pumpBus(ctx, &wg)
	go a.pumpTicker(ctx, &wg)

	for ctx.Err() == nil && !a.stopFlag.Load() {
		a.drainPending()

		a.mu.Lock()
		for !a.Source.HasEvents() && ctx.Err() == nil && !a.stopFlag.Load() {
			a.cond.Wait()
		}
		a.mu.Unlock()
	}

	cancel()
	wg.Wait()
}

// drainPending pops and delivers every event currently pending on the
// source, stopping early if Stop has been called after any delivered event.
func (a *Actor[E]) drainPending() {
	for !a.stopFlag.Load() {
		ev, ok := a.Source.PopEvent()
		if !ok {
			return
		}
		a.Deliver(ev)
	}
}

// pumpBus wakes the event loop's condition variable whenever the source
// signals a new event, and on context cancellation.
func (a *Actor[E]) pumpBus(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			a.cond.L.Lock()
			a.cond.Broadcast()
			a.cond.L.Unlock()
			return
		case <-a.Source.NotifyChan():
			a.cond.L.Lock()
			a.cond.Broadcast()
			a.cond.L.Unlock()
		}
	}
}

// pumpTicker calls Instance.Update every Config.TickInterval until ctx is
// canceled.
func (a *Actor[E]) pumpTicker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	interval := a.Config.TickInterval
	if interval <= 0 {
		interval = DefaultConfig().TickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.mu.Lock()
			a.Instance.Update(now)
			a.mu.Unlock()
		}
	}
}
