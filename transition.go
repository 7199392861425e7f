package hsm

import (
	"fmt"
	"strings"
)

type transition[E any] struct {
	internal   bool
	local      bool
	eventId    int
	target     *State[E]
	guard      func(Event, E) bool
	guardName  string
	action     func(Event, E)
	actionName string
	history    History
}

func (t *transition[E]) String() string {
	var bld strings.Builder
	if t.guard != nil {
		bld.WriteByte('[')
		bld.WriteString(t.guardName)
		bld.WriteByte(']')
	}
	if t.action != nil {
		bld.WriteString(" / ")
		bld.WriteString(t.actionName)
	}
	return bld.String()
}

// Transition creates and returns a builder for the transition from s into
// target, triggered by the event with the given id. The returned builder
// lets the caller further customize the transition with a guard, action, or
// transition kind. Pass nil for target to declare a terminating transition
// into the state machine's implicit terminal state.
func (s *State[E]) Transition(eventId int, target *State[E]) *TransitionBuilder[E] {
	if target == nil {
		target = &s.sm.terminal
	}
	t := transition[E]{target: target, eventId: eventId}
	tb := &TransitionBuilder[E]{src: s, t: &t}
	s.sm.transitionBuilders = append(s.sm.transitionBuilders, tb)
	return tb
}

// AddTransition is a convenience method equivalent to
// s.Transition(eventId, target).Build().
func (s *State[E]) AddTransition(eventId int, target *State[E]) {
	s.Transition(eventId, target).Build()
}

type transitionOption[E any] func(s *State[E], t *transition[E])

// TransitionBuilder provides a fluent API for building a transition from
// one state to another: an optional guard that must pass for the
// transition to fire, an optional action run between the exit and entry
// walks, and a transition kind (external, internal, local).
type TransitionBuilder[E any] struct {
	src     *State[E]
	t       *transition[E]
	options []transitionOption[E]
	guards  []namedGuard[E]
	actions []namedAction[E]
}

// Guard specifies a condition that must hold for the transition to take
// place. May be called multiple times; all guards must pass. The name is
// used only for diagnostics (PlantUML export).
func (tb *TransitionBuilder[E]) Guard(name string, f func(Event, E) bool) *TransitionBuilder[E] {
	tb.guards = append(tb.guards, namedGuard[E]{name: name, guard: f})
	if len(tb.guards) == 1 {
		tb.options = append(tb.options, func(s *State[E], t *transition[E]) {
			t.guardName, t.guard = combineGuards(tb.guards)
		})
	}
	return tb
}

// Action specifies a side effect run after any exit hooks and before any
// entry hooks. May be called multiple times to assign multiple actions, run
// in the order of assignment. The name is used only for diagnostics.
func (tb *TransitionBuilder[E]) Action(name string, f func(Event, E)) *TransitionBuilder[E] {
	tb.actions = append(tb.actions, namedAction[E]{name: name, action: f})
	if len(tb.actions) == 1 {
		tb.options = append(tb.options, func(s *State[E], t *transition[E]) {
			t.actionName, t.action = combineActions(tb.actions)
		})
	}
	return tb
}

// Internal marks the transition as internal: it must be a self-transition
// (target equal to source), and suppresses the exit/entry walk entirely,
// running only the action. Internal transitions declared on a composite
// state are inherited by all of its sub-states; a sub-state's own
// transition for the same event is tried only after the inherited one,
// so it fires only when the inherited transition's guard fails.
func (tb *TransitionBuilder[E]) Internal() *TransitionBuilder[E] {
	if tb.src != tb.t.target {
		targetName := "nil"
		if tb.t.target != nil {
			targetName = tb.t.target.name
		}
		panic(fmt.Sprintf("Transition %s -> %s can not be internal", tb.src.name, targetName))
	}
	tb.options = append(tb.options, func(s *State[E], t *transition[E]) { t.internal = true })
	return tb
}

// Local marks the transition as local rather than external. This is only
// meaningful between a composite state and one of its (direct or
// transitive) sub-states: a local transition does not exit and re-enter the
// shared ancestor, while an external one does.
func (tb *TransitionBuilder[E]) Local(b bool) *TransitionBuilder[E] {
	opt := func(s *State[E], t *transition[E]) {
		if parent := commonAncestorOf(s, t.target); parent == nil {
			panic("Transition " + s.name + " -> " + t.target.name + " can not be local")
		}
		t.local = b
	}
	tb.options = append(tb.options, opt)
	return tb
}

// History marks the transition as resolving into the shallow or deep
// history of the target composite state: if the target has not yet been
// visited, the transition falls through to the target's normal initial
// descent.
func (tb *TransitionBuilder[E]) History(h History) *TransitionBuilder[E] {
	opt := func(s *State[E], t *transition[E]) {
		t.history = h
	}
	tb.options = append(tb.options, opt)
	return tb
}

// Build completes building the transition, attaching it to its source
// state.
func (tb *TransitionBuilder[E]) Build() {
	if tb.src.sm.LocalDefault {
		if parent := commonAncestorOf(tb.src, tb.t.target); parent != nil {
			tb.t.local = true
		}
	}
	tb.src.transitions = append(tb.src.transitions, tb.t)
	for _, opt := range tb.options {
		opt(tb.src, tb.t)
	}
	sm := tb.src.sm
	for i, tb1 := range sm.transitionBuilders {
		if tb == tb1 {
			sm.transitionBuilders = append(sm.transitionBuilders[:i], sm.transitionBuilders[i+1:]...)
			return
		}
	}
	panic("Invalid attempt to use the same transition builder twice")
}

// commonAncestorOf returns whichever of s1, s2 is a (direct or transitive)
// super-state of the other, or nil if neither is.
func commonAncestorOf[E any](s1, s2 *State[E]) *State[E] {
	for s := s1.parent; s != nil; s = s.parent {
		if s == s2 {
			return s
		}
	}
	for s := s2.parent; s != nil; s = s.parent {
		if s == s1 {
			return s
		}
	}
	return nil
}
