package hsm

import (
	"fmt"
	"strings"
	"time"
)

// State is a leaf or composite state in a state machine. To create a
// top-level state, use [StateMachine.State]. To create a sub-state of a
// composite state, use [State.State]. State (and its containing
// StateMachine) are parameterized by E, the extended state type threaded
// through every guard, action, and hook. Use struct{} if no extended state
// is needed.
type State[E any] struct {
	name                string
	alias               string
	parent              *State[E]
	children            []*State[E]
	initial             *State[E] // initial child state
	validated           bool
	index               int // dense path index, assigned by Finalize
	entry, exit, update func(Event, E)
	entryName, exitName string
	transitions         []*transition[E]
	behaviors           []*Behavior[E]
	deferred            map[int]bool
	updateInterval      time.Duration
	lastUpdate          time.Time
	sm                  *StateMachine[E]
	history             History // not set or read; history kind is carried on each transition
	compiled            map[int][]*candidate[E]
}

// Behavior is an independent entry/exit/update trio attached to a state in
// addition to the state's own hooks. A state may own any number of
// behaviors; they run, in declaration order, after the state's own hook of
// the same kind.
type Behavior[E any] struct {
	Name  string
	Entry func(Event, E)
	Exit  func(Event, E)
	// Update is invoked by Instance.Update whenever the owning state is on
	// the active path, honoring the state's UpdateInterval.
	Update func(Event, E)
}

type namedAction[E any] struct {
	name   string
	action func(Event, E)
}

type namedGuard[E any] struct {
	name  string
	guard func(Event, E) bool
}

func (na namedAction[E]) Name() string {
	return na.name
}

func (ng namedGuard[E]) Name() string {
	return ng.name
}

type named interface {
	Name() string
}

// combineNames combines names of multiple items by separating with ';',
// skipping any that are empty.
func combineNames[N named](items []N) string {
	var nonEmptyNames []string
	for _, item := range items {
		if item.Name() != "" {
			nonEmptyNames = append(nonEmptyNames, item.Name())
		}
	}
	return strings.Join(nonEmptyNames, ";")
}

// combineActions returns the combined name and combined action (one that
// executes all actions in sequence).
func combineActions[E any](namedActions []namedAction[E]) (name string, action func(event Event, e E)) {
	if len(namedActions) == 1 {
		return namedActions[0].name, namedActions[0].action
	}
	return combineNames(namedActions), func(event Event, e E) {
		for _, na := range namedActions {
			na.action(event, e)
		}
	}
}

// combineGuards returns the combined name and combined guard (one that
// requires all guards to pass).
func combineGuards[E any](namedGuards []namedGuard[E]) (name string, guard func(event Event, e E) bool) {
	if len(namedGuards) == 1 {
		return namedGuards[0].name, namedGuards[0].guard
	}
	return combineNames(namedGuards), func(event Event, e E) bool {
		for _, ng := range namedGuards {
			if !ng.guard(event, e) {
				return false
			}
		}
		return true
	}
}

// StateBuilder provides a fluent API for building a new [State].
type StateBuilder[E any] struct {
	parent         *State[E]
	name           string
	options        []stateOption[E]
	entries, exits []namedAction[E]
}

type stateOption[E any] func(s *State[E])

// Entry sets f as an entry action for the state being built. May be called
// multiple times to assign multiple entry actions, run in the order of
// assignment.
func (sb *StateBuilder[E]) Entry(name string, f func(Event, E)) *StateBuilder[E] {
	sb.entries = append(sb.entries, namedAction[E]{name: name, action: f})
	if len(sb.entries) == 1 {
		sb.options = append(sb.options, func(s *State[E]) {
			s.entryName, s.entry = combineActions(sb.entries)
		})
	}
	return sb
}

// Exit sets f as an exit action for the state being built. May be called
// multiple times to assign multiple exit actions, run in the order of
// assignment.
func (sb *StateBuilder[E]) Exit(name string, f func(Event, E)) *StateBuilder[E] {
	sb.exits = append(sb.exits, namedAction[E]{name: name, action: f})
	if len(sb.exits) == 1 {
		sb.options = append(sb.options, func(s *State[E]) {
			s.exitName, s.exit = combineActions(sb.exits)
		})
	}
	return sb
}

// Update sets f as the periodic update hook for the state being built. f is
// invoked by Instance.Update whenever this state is on the active path, no
// more often than every interval (0 means every call to Update).
func (sb *StateBuilder[E]) Update(interval time.Duration, f func(Event, E)) *StateBuilder[E] {
	sb.options = append(sb.options, func(s *State[E]) {
		s.update = f
		s.updateInterval = interval
	})
	return sb
}

// Defer marks eventId as deferred while this state is active: Deliver will
// queue such events rather than processing them immediately, and replay
// them after the next successful transition.
func (sb *StateBuilder[E]) Defer(eventId int) *StateBuilder[E] {
	sb.options = append(sb.options, func(s *State[E]) {
		if s.deferred == nil {
			s.deferred = make(map[int]bool)
		}
		s.deferred[eventId] = true
	})
	return sb
}

// Behavior attaches an additional independent entry/exit/update trio to the
// state being built, run after the state's own hooks of the same kind.
func (sb *StateBuilder[E]) Behavior(b *Behavior[E]) *StateBuilder[E] {
	sb.options = append(sb.options, func(s *State[E]) {
		s.behaviors = append(s.behaviors, b)
	})
	return sb
}

// Initial marks the state being built as the initial sub-state of its
// parent. Exactly one sub-state of a composite state may be marked
// initial.
func (sb *StateBuilder[E]) Initial() *StateBuilder[E] {
	opt := func(s *State[E]) {
		p := s.parent
		if p.initial != nil && p.initial != s {
			panic(fmt.Sprintf("sub-states %s and %s can not both be marked initial", s.name, p.initial.name))
		}
		p.initial = s
	}
	sb.options = append(sb.options, opt)
	return sb
}

// Build builds and returns the new state.
func (sb *StateBuilder[E]) Build() *State[E] {
	ss := State[E]{
		parent: sb.parent,
		name:   sb.name,
		alias:  strings.ReplaceAll(sb.name, " ", "_"),
		sm:     sb.parent.sm,
	}
	for _, opt := range sb.options {
		opt(&ss)
	}
	sb.parent.children = append(sb.parent.children, &ss)
	sm := sb.parent.sm
	for i, sb1 := range sm.stateBuilders {
		if sb == sb1 {
			sm.stateBuilders = append(sm.stateBuilders[:i], sm.stateBuilders[i+1:]...)
			return &ss
		}
	}
	panic(fmt.Sprintf("State %s builder: invalid attempt to use the same builder twice", sb.name))
}

// IsLeaf reports whether s has no sub-states.
func (s *State[E]) IsLeaf() bool {
	return len(s.children) == 0
}

// Defer marks eventId as deferred while s is active, the same as
// StateBuilder.Defer but usable on an already-built state.
func (s *State[E]) Defer(eventId int) {
	if s.deferred == nil {
		s.deferred = make(map[int]bool)
	}
	s.deferred[eventId] = true
}

// Index returns the dense state-path index StateMachine.Finalize assigned
// s: the same index the compiled dispatch table and history store key on.
// Only meaningful after Finalize has run.
func (s *State[E]) Index() int {
	return s.index
}

// State creates and returns a builder for a new sub-state of s.
func (s *State[E]) State(name string) *StateBuilder[E] {
	sb := &StateBuilder[E]{parent: s, name: name}
	s.sm.stateBuilders = append(s.sm.stateBuilders, sb)
	return sb
}

// Name returns the state's declared name.
func (s *State[E]) Name() string {
	if s == nil {
		return "nil"
	}
	return s.name
}

// String is a synonym for Name.
func (s *State[E]) String() string {
	return s.Name()
}

// validate checks that, if s is entered, a unique path exists through
// initial sub-states down to a leaf state.
func (s *State[E]) validate() {
	for !s.IsLeaf() && !s.validated {
		if s.initial == nil {
			panic("state " + s.name + " must have initial sub-state")
		}
		s.validated = true
		s = s.initial
	}
}

// isOrIsDescendantOf reports whether s is p itself or a (direct or
// transitive) sub-state of p.
func (s *State[E]) isOrIsDescendantOf(p *State[E]) bool {
	for ; s != nil; s = s.parent {
		if s == p {
			return true
		}
	}
	return false
}
