package hsm_test

import (
	"testing"
	"time"

	"github.com/arcstate/hsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	evGo = iota
	evAnonCheck
	evTick
	evE1
	evE3
	evIe1
	evIe2
)

func buildBenchMachine() *hsm.StateMachine[*int] {
	sm := &hsm.StateMachine[*int]{}
	a := sm.State("A").Initial().Build()
	b := sm.State("B").Build()
	a.AddTransition(evGo, b)
	b.AddTransition(evGo, a)
	sm.Finalize()
	return sm
}

func BenchmarkDeliver(b *testing.B) {
	sm := buildBenchMachine()
	n := 0
	ins := hsm.NewInstance(sm, &n)
	ins.Initialize()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ins.Deliver(hsm.Event{Id: evGo})
	}
}

func TestDeferredEventsReplayAfterTransition(t *testing.T) {
	sm := &hsm.StateMachine[*int]{}
	locked := sm.State("Locked").Initial().Build()
	unlocked := sm.State("Unlocked").Build()
	locked.State("LockedChild").Initial().Build()
	locked.Defer(evGo)
	locked.AddTransition(evAnonCheck, unlocked)

	sm.Finalize()

	n := 0
	ins := hsm.NewInstance(sm, &n)
	ins.Initialize()

	require.Equal(t, hsm.Deferred, ins.Deliver(hsm.Event{Id: evGo}))
	assert.Equal(t, "LockedChild", ins.CurrentStateName())

	require.Equal(t, hsm.Success, ins.Deliver(hsm.Event{Id: evAnonCheck}))
	assert.Equal(t, "Unlocked", ins.CurrentStateName())
}

func TestAnonymousTransitionDrainsImmediately(t *testing.T) {
	sm := &hsm.StateMachine[*int]{}
	start := sm.State("Start").Initial().Build()
	middle := sm.State("Middle").Build()
	done := sm.State("Done").Build()
	start.Transition(hsm.Anonymous, middle).Build()
	middle.Transition(hsm.Anonymous, done).Build()

	sm.Finalize()

	n := 0
	ins := hsm.NewInstance(sm, &n)
	ins.Initialize()

	assert.Equal(t, done, ins.Current())
}

func TestAnonymousChainCapReportsFailed(t *testing.T) {
	sm := &hsm.StateMachine[*int]{}
	start := sm.State("Start").Initial().Build()
	loop := sm.State("Loop").Build()
	start.AddTransition(evGo, loop)
	loop.Transition(hsm.Anonymous, loop).Build()

	sm.Finalize()

	n := 0
	ins := hsm.NewInstance(sm, &n)
	ins.SetMaxAnonymousChain(5)
	ins.Initialize()

	assert.Equal(t, hsm.Failed, ins.Deliver(hsm.Event{Id: evGo}))
	assert.Equal(t, "Loop", ins.CurrentStateName())
}

// TestHigherLevelTransitionOverridesNestedOne replicates spec.md §8
// scenario 2: S2 declares e3 -> S3 while its grandchild IS23 also
// declares e3 -> IS21. Both candidates apply while IS23 is active, but
// the dispatch table must order S2's shorter ancestor-chain candidate
// ahead of IS23's, so the higher-level transition wins.
func TestHigherLevelTransitionOverridesNestedOne(t *testing.T) {
	sm := &hsm.StateMachine[*int]{}
	s1 := sm.State("S1").Initial().Build()
	s2 := sm.State("S2").Build()
	is21 := s2.State("IS21").Initial().Build()
	is22 := s2.State("IS22").Build()
	is23 := s2.State("IS23").Build()
	s3 := sm.State("S3").Build()
	s3.State("IS31").Initial().Build()

	s1.AddTransition(evE1, s2)
	s2.AddTransition(evE3, s3)
	is21.AddTransition(evIe1, is22)
	is22.AddTransition(evIe2, is23)
	is23.AddTransition(evE3, is21)

	sm.Finalize()

	n := 0
	ins := hsm.NewInstance(sm, &n)
	ins.Initialize()

	require.Equal(t, hsm.Success, ins.Deliver(hsm.Event{Id: evE1}))
	assert.Equal(t, "IS21", ins.CurrentStateName())
	require.Equal(t, hsm.Success, ins.Deliver(hsm.Event{Id: evIe1}))
	assert.Equal(t, "IS22", ins.CurrentStateName())
	require.Equal(t, hsm.Success, ins.Deliver(hsm.Event{Id: evIe2}))
	assert.Equal(t, "IS23", ins.CurrentStateName())

	require.Equal(t, hsm.Success, ins.Deliver(hsm.Event{Id: evE3}))
	assert.Equal(t, "IS31", ins.CurrentStateName(), "S2's e3->S3 must win over IS23's e3->IS21")
}

func TestIsReportsAncestors(t *testing.T) {
	sm := &hsm.StateMachine[struct{}]{}
	parent := sm.State("Parent").Initial().Build()
	child := parent.State("Child").Initial().Build()
	sm.Finalize()

	ins := hsm.NewInstance(sm, struct{}{})
	ins.Initialize()

	assert.True(t, ins.Is(child))
	assert.True(t, ins.Is(parent))
}

func TestUpdateHonorsInterval(t *testing.T) {
	sm := &hsm.StateMachine[*int]{}
	calls := 0
	sm.State("Only").Initial().Update(10*time.Millisecond, func(hsm.Event, *int) { calls++ }).Build()
	sm.Finalize()

	n := 0
	ins := hsm.NewInstance(sm, &n)
	ins.Initialize()

	base := time.Unix(0, 0)
	ins.Update(base)
	assert.Equal(t, 1, calls)
	ins.Update(base.Add(5 * time.Millisecond))
	assert.Equal(t, 1, calls, "update before interval elapsed should be skipped")
	ins.Update(base.Add(11 * time.Millisecond))
	assert.Equal(t, 2, calls)
}
