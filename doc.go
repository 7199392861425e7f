// Package hsm implements a hierarchical state machine (statechart) engine.
//
// A [StateMachine] describes the structure of a state graph: states, built
// with the fluent [State.State] builder, nested arbitrarily deep, and
// transitions between them, built with [State.Transition]. Once built, the
// graph is compiled once by [StateMachine.Finalize] into an immutable
// dispatch table keyed by (event, state-path index). A [StateMachine] is
// parameterized over E, the caller's extended-state type threaded through
// every guard, action, and entry/exit hook; use struct{} if no extended
// state is needed.
//
// An [Instance] is a single running instantiation of a [StateMachine]. Call
// [Instance.Initialize] once, then deliver events with [Instance.Deliver].
// Dispatch is deterministic once the dispatch table has been built:
// [Instance.Deliver] walks the active-state path, runs exit hooks, the
// transition action, and entry hooks, without consulting the state graph's
// builders again. Dispatch is not allocation-free: each fired transition
// allocates a small map and slices to compute its exit and entry walks.
package hsm
