package actor_test

import (
	"context"
	"testing"
	"time"

	"github.com/arcstate/hsm"
	"github.com/arcstate/hsm/actor"
	"github.com/arcstate/hsm/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	evPing = iota
	evPong
)

func buildPingPong() (*hsm.StateMachine[*int], *hsm.State[*int], *hsm.State[*int]) {
	sm := &hsm.StateMachine[*int]{}
	ping := sm.State("Ping").Initial().Build()
	pong := sm.State("Pong").Build()
	ping.AddTransition(evPing, pong)
	pong.AddTransition(evPong, ping)
	sm.Finalize()
	return sm, ping, pong
}

func TestActorDeliversQueuedEvents(t *testing.T) {
	sm, _, pong := buildPingPong()
	count := 0
	ins := hsm.NewInstance(sm, &count)
	q := bus.New(8)
	a := actor.New(ins, q, actor.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	q.Push(hsm.Event{Id: evPing})

	require.Eventually(t, func() bool {
		return a.Is(pong)
	}, time.Second, time.Millisecond, "actor should have transitioned to Pong")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestActorStopEndsRun(t *testing.T) {
	sm, _, _ := buildPingPong()
	count := 0
	ins := hsm.NewInstance(sm, &count)
	q := bus.New(8)
	a := actor.New(ins, q, actor.DefaultConfig())

	done := make(chan struct{})
	go func() {
		a.Run(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return a.Status() == actor.RUN }, time.Second, time.Millisecond)

	a.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, actor.STOP, a.Status())
}
