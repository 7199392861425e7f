package hsm

import "fmt"

// StateMachine encapsulates the structure of an entire state machine: the
// hierarchy of states built with State.State, and the transitions built
// with State.Transition. StateMachine only describes structure. Once
// Finalize has compiled it, create an [Instance] to run it.
//
// StateMachine is parameterized by E, the extended state type threaded
// through every guard, action, and hook. Use struct{} if no extended
// state is needed.
type StateMachine[E any] struct {
	top      State[E]
	terminal State[E]

	// LocalDefault sets whether transitions between an ancestor and a
	// descendant default to local (no exit/re-entry of the shared
	// ancestor) rather than external. An individual transition can still
	// override this default with TransitionBuilder.Local.
	LocalDefault bool

	stateBuilders      []*StateBuilder[E]
	transitionBuilders []*TransitionBuilder[E]

	states     []*State[E] // dense path index -> state; states[0] is top
	MaxDepth   int         // deepest nesting level observed during Finalize
	hasHistory bool        // true if any transition targets a history pseudo-state
	finalized  bool
}

// State creates and returns a builder for a new top-level state.
func (sm *StateMachine[E]) State(name string) *StateBuilder[E] {
	sm.top.sm = sm
	sm.terminal.sm = sm
	return sm.top.State(name)
}

// Finalize compiles the declared state graph into its dispatch table. It
// must be called exactly once, after every state and transition has been
// built, and before any Instance is created. Finalize panics on any
// programmer error in the declared graph: a state builder or transition
// builder left without a call to Build, a composite state without exactly
// one initial sub-state, or a transition whose target is such a state.
func (sm *StateMachine[E]) Finalize() {
	if len(sm.stateBuilders) > 0 {
		sb := sm.stateBuilders[0]
		panic(fmt.Sprintf("state %s builder left unused. Forgotten call to Build()?", sb.name))
	}
	if len(sm.transitionBuilders) > 0 {
		tb := sm.transitionBuilders[0]
		panic(fmt.Sprintf("transition builder for event %d, %s --> %s left unused. Forgotten call to Build()?",
			tb.t.eventId, tb.src.name, tb.t.target.name))
	}
	if sm.top.initial == nil {
		panic("state machine must have initial sub-state")
	}
	sm.top.validate()

	var recurseValidate func(s *State[E])
	recurseValidate = func(s *State[E]) {
		for _, t := range s.transitions {
			t.target.validate()
		}
		for _, c := range s.children {
			recurseValidate(c)
		}
	}
	recurseValidate(&sm.top)

	sm.assignIndices()
	sm.compileDispatch()
	sm.finalized = true
}

// assignIndices performs a pre-order walk of the state tree, assigning each
// state a dense path index (spec.md's "state-path index"), root first. The
// terminal pseudo-state used by transitions to nil targets is appended
// last, since it is never itself a child of any built state.
func (sm *StateMachine[E]) assignIndices() {
	sm.states = sm.states[:0]
	sm.MaxDepth = 0
	var visit func(s *State[E], depth int)
	visit = func(s *State[E], depth int) {
		s.index = len(sm.states)
		sm.states = append(sm.states, s)
		if depth > sm.MaxDepth {
			sm.MaxDepth = depth
		}
		for _, c := range s.children {
			visit(c, depth+1)
		}
	}
	visit(&sm.top, 0)
	sm.terminal.index = len(sm.states)
	sm.states = append(sm.states, &sm.terminal)
}

// compileDispatch builds, for every state, the full declaration-ordered
// candidate list for every event the graph uses. Everything inherited from
// a state's parent comes first, followed by the state's own candidates
// (its declared defer, then its declared transitions, in the order
// TransitionBuilder.Build was called) — so every sub-state inherits its
// ancestors' transitions, and its own candidates for an event are tried
// only after the inherited ones, realizing spec.md §4.1 step 4 ("sort by ancestor-chain length ascending: a
// higher-level transition is matched before a more deeply nested one for
// the same event") without needing a separate sorting pass, since every
// descendant's compiled map already contains its ancestors' candidates,
// in ancestor-first order, by construction.
func (sm *StateMachine[E]) compileDispatch() {
	events := map[int]bool{}
	var collectEvents func(s *State[E])
	collectEvents = func(s *State[E]) {
		for _, t := range s.transitions {
			events[t.eventId] = true
		}
		for e := range s.deferred {
			events[e] = true
		}
		for _, c := range s.children {
			collectEvents(c)
		}
	}
	collectEvents(&sm.top)

	sm.hasHistory = false
	var compile func(s *State[E])
	compile = func(s *State[E]) {
		s.compiled = make(map[int][]*candidate[E], len(events))
		for e := range events {
			var own []*candidate[E]
			if s.parent != nil {
				own = append(own, s.parent.compiled[e]...)
			}
			if s.deferred[e] {
				own = append(own, &candidate[E]{owner: s, isDeferred: true})
			}
			for _, t := range s.transitions {
				if t.eventId != e {
					continue
				}
				if t.history != NoHistory {
					sm.hasHistory = true
				}
				own = append(own, &candidate[E]{
					owner:      s,
					dest:       t.target,
					isInternal: t.internal,
					isLocal:    t.local,
					history:    t.history,
					guard:      t.guard,
					guardName:  t.guardName,
					action:     t.action,
					actionName: t.actionName,
				})
			}
			if len(own) > 0 {
				s.compiled[e] = own
			}
		}
		for _, c := range s.children {
			compile(c)
		}
	}
	compile(&sm.top)
}
