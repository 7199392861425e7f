package hsm

// candidate is one precompiled dispatch-table entry: a transition (or a
// deferred-event marker) eligible for a given (event, active-state) pair.
type candidate[E any] struct {
	owner      *State[E] // the state that declared this transition
	dest       *State[E] // declared target, before history resolution
	isInternal bool
	isLocal    bool
	isDeferred bool
	history    History
	guard      func(Event, E) bool
	guardName  string
	action     func(Event, E)
	actionName string
}

// dispatchTable is the compiled, immutable event-code -> state-path-index
// -> ordered-candidate-list lookup described by the specification. It is
// built once by StateMachine.Finalize: each state's own compiled map
// already includes every inherited candidate from its ancestors, in
// declaration order, so a lookup is a single slice read with no further
// tree walk.
type dispatchTable[E any] struct{}

// lookup returns the declaration-ordered candidate list registered for
// (event, state), or nil if none is registered. Candidates for sub-states
// of a transition's source are present because each state's compiled
// table already folds in everything inherited from its ancestors.
func (dispatchTable[E]) lookup(event int, state *State[E]) []*candidate[E] {
	if state == nil {
		return nil
	}
	return state.compiled[event]
}
