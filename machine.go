package hsm

import (
	"time"

	"github.com/arcstate/hsm/history"
)

// DeferredOverflowPolicy controls what Instance.Deliver does when a
// deferred event arrives and the deferred queue is already at its
// configured bound.
type DeferredOverflowPolicy int

const (
	// DropOldest discards the longest-queued deferred event to make room
	// for the new one.
	DropOldest DeferredOverflowPolicy = iota
	// DropNewest discards the incoming event, leaving the queue unchanged.
	DropNewest
)

// Instance is a running instantiation of a [StateMachine]: its current
// active leaf state, its extended state value, its deferred-event queue,
// and its history store. Create one with NewInstance once the machine has
// been finalized, then call Initialize before delivering any events.
type Instance[E any] struct {
	sm       *StateMachine[E]
	Extended E
	active   *State[E]
	hist     *history.Store

	deferredQueue  []Event
	deferredBound  int // 0 means unbounded
	overflowPolicy DeferredOverflowPolicy
	maxAnonymous   int
}

// NewInstance creates a new, not-yet-initialized instance of sm. sm must
// already have been finalized with StateMachine.Finalize.
func NewInstance[E any](sm *StateMachine[E], extended E) *Instance[E] {
	if !sm.finalized {
		panic("state machine not finalized: call Finalize before creating an Instance")
	}
	return &Instance[E]{
		sm:           sm,
		Extended:     extended,
		hist:         history.New(),
		maxAnonymous: 1000,
	}
}

// SetDeferredQueueBound sets the maximum number of deferred events the
// instance will hold at once. 0 (the default) means unbounded.
func (ins *Instance[E]) SetDeferredQueueBound(bound int) {
	ins.deferredBound = bound
}

// SetDeferredOverflowPolicy sets the policy applied when a deferred event
// arrives and the deferred queue is already at its bound.
func (ins *Instance[E]) SetDeferredOverflowPolicy(p DeferredOverflowPolicy) {
	ins.overflowPolicy = p
}

// SetMaxAnonymousChain bounds the number of anonymous (completion)
// transitions Deliver will fire in a row following a single delivered
// event, guarding against a mistakenly unconditional cycle of anonymous
// transitions. The default is 1000.
func (ins *Instance[E]) SetMaxAnonymousChain(n int) {
	ins.maxAnonymous = n
}

// Initialize performs the initial entry walk from the state machine's
// top-level initial state down to a leaf, running every entry hook along
// the way, and then drains any anonymous transitions eligible from that
// leaf. It must be called exactly once, before any call to Deliver.
func (ins *Instance[E]) Initialize() {
	ev := Event{Id: NoEvent}
	ins.active = ins.resolveDescent(&ins.sm.top, NoHistory, ev)
	ins.drainAnonymous()
}

// Current returns the instance's currently active leaf state.
func (ins *Instance[E]) Current() *State[E] {
	return ins.active
}

// CurrentStateName returns the name of the instance's currently active
// leaf state.
func (ins *Instance[E]) CurrentStateName() string {
	return ins.active.Name()
}

// Is reports whether s is the currently active state or one of its
// (direct or transitive) super-states, i.e. whether s is on the active
// path.
func (ins *Instance[E]) Is(s *State[E]) bool {
	return ins.active.isOrIsDescendantOf(s)
}

// Deliver processes ev against the instance's currently active state. If a
// transition fires, Deliver then drains any anonymous transitions eligible
// from the new active state, and finally replays every event that had been
// deferred up to that point, each exactly once.
func (ins *Instance[E]) Deliver(ev Event) ProcessResult {
	res := ins.processEvent(ev)
	if res == Success {
		if !ins.drainAnonymous() {
			return Failed
		}
		ins.replayDeferred()
	}
	return res
}

// processEvent evaluates the compiled candidate list for ev against the
// currently active state, in declaration order, and fires the first whose
// guard passes (a missing guard always passes).
func (ins *Instance[E]) processEvent(ev Event) ProcessResult {
	candidates := dispatchTable[E]{}.lookup(ev.Id, ins.active)
	if len(candidates) == 0 {
		return Nothing
	}
	for _, c := range candidates {
		if c.isDeferred {
			ins.pushDeferred(ev)
			return Deferred
		}
		if c.guard != nil && !c.guard(ev, ins.Extended) {
			continue
		}
		ins.execute(c, ev)
		return Success
	}
	return Failed
}

// drainAnonymous repeatedly fires anonymous (completion) transitions from
// the active state until none is eligible. If the chain reaches
// maxAnonymous in a row, drainAnonymous stops and reports false, treating
// the run as a likely unconditional cycle rather than looping forever; the
// active state is left wherever the chain was cut off.
func (ins *Instance[E]) drainAnonymous() bool {
	for i := 0; ; i++ {
		if i >= ins.maxAnonymous {
			return false
		}
		if ins.processEvent(Event{Id: Anonymous}) != Success {
			return true
		}
	}
}

// replayDeferred drains the deferred-event queue accumulated since the
// last successful transition, attempting each queued event exactly once.
// Events re-deferred during this pass land in the instance's now-empty
// queue rather than the slice being iterated, guaranteeing termination.
func (ins *Instance[E]) replayDeferred() {
	pending := ins.deferredQueue
	ins.deferredQueue = nil
	for _, qe := range pending {
		ins.processEvent(qe)
	}
}

// pushDeferred appends ev to the deferred queue, applying the configured
// overflow policy if the queue is already at its bound.
func (ins *Instance[E]) pushDeferred(ev Event) {
	if ins.deferredBound > 0 && len(ins.deferredQueue) >= ins.deferredBound {
		switch ins.overflowPolicy {
		case DropOldest:
			ins.deferredQueue = append(ins.deferredQueue[1:], ev)
		case DropNewest:
		}
		return
	}
	ins.deferredQueue = append(ins.deferredQueue, ev)
}

// execute fires a matched candidate: for an internal transition, it runs
// only the action; otherwise it exits the active configuration up to the
// transition's least common ancestor, runs the action, enters back down to
// the target, and resolves the new active leaf (honoring history if the
// transition requested it).
func (ins *Instance[E]) execute(c *candidate[E], ev Event) {
	if c.isInternal {
		if c.action != nil {
			c.action(ev, ins.Extended)
		}
		return
	}

	dest := c.dest
	var lca *State[E]
	if dest == &ins.sm.terminal {
		lca = nil
	} else {
		lca = lowestCommonAncestor(c.owner, dest)
		if !c.isLocal && (lca == c.owner || lca == dest) {
			lca = lca.parent
		}
	}

	cur := ins.active
	var childSuffix []int
	for cur != lca {
		if ins.sm.hasHistory && !cur.IsLeaf() {
			rev := make([]int, len(childSuffix))
			for i, v := range childSuffix {
				rev[len(childSuffix)-1-i] = v
			}
			ins.hist.Record(cur.index, rev)
		}
		ins.runExit(cur, ev)
		childSuffix = append(childSuffix, cur.index)
		cur = cur.parent
	}

	if c.action != nil {
		c.action(ev, ins.Extended)
	}

	var chain []*State[E]
	for s := dest; s != lca; s = s.parent {
		chain = append(chain, s)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	for _, s := range chain {
		ins.runEntry(s, ev)
	}

	ins.active = ins.resolveDescent(dest, c.history, ev)
}

// resolveDescent returns the leaf reached by descending from s: via its
// recorded history snapshot if h requests one and a snapshot exists,
// otherwise via s's normal chain of initial sub-states. s itself is
// assumed already entered by the caller; resolveDescent only enters its
// descendants.
func (ins *Instance[E]) resolveDescent(s *State[E], h History, ev Event) *State[E] {
	if s.IsLeaf() {
		return s
	}
	if h != NoHistory {
		if suffix, ok := ins.hist.Lookup(s.index); ok {
			return ins.enterHistorySuffix(suffix, h, ev)
		}
	}
	cur := s
	for cur.initial != nil {
		cur = cur.initial
		ins.runEntry(cur, ev)
	}
	return cur
}

// enterHistorySuffix enters the recorded descendant chain suffix,
// outermost first. For shallow history only the first element is entered,
// after which normal initial descent resumes below it; for deep history
// the full recorded chain is entered, reaching the leaf that was active
// when the enclosing state was last exited.
func (ins *Instance[E]) enterHistorySuffix(suffix []int, h History, ev Event) *State[E] {
	var cur *State[E]
	for _, idx := range suffix {
		child := ins.sm.states[idx]
		ins.runEntry(child, ev)
		cur = child
		if h == HistoryShallow {
			break
		}
	}
	for cur.initial != nil {
		cur = cur.initial
		ins.runEntry(cur, ev)
	}
	return cur
}

func (ins *Instance[E]) runEntry(s *State[E], ev Event) {
	if s.entry != nil {
		s.entry(ev, ins.Extended)
	}
	for _, b := range s.behaviors {
		if b.Entry != nil {
			b.Entry(ev, ins.Extended)
		}
	}
}

func (ins *Instance[E]) runExit(s *State[E], ev Event) {
	if s.exit != nil {
		s.exit(ev, ins.Extended)
	}
	for _, b := range s.behaviors {
		if b.Exit != nil {
			b.Exit(ev, ins.Extended)
		}
	}
}

// Update invokes the periodic update hook (and update behaviors) of every
// state on the active path, outermost first, skipping any whose declared
// UpdateInterval has not yet elapsed since its last invocation at now.
func (ins *Instance[E]) Update(now time.Time) {
	var chain []*State[E]
	for s := ins.active; s != nil && s != &ins.sm.top; s = s.parent {
		chain = append(chain, s)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	ev := Event{Id: NoEvent}
	for _, s := range chain {
		if s.update == nil && len(s.behaviors) == 0 {
			continue
		}
		if s.updateInterval > 0 && now.Sub(s.lastUpdate) < s.updateInterval {
			continue
		}
		s.lastUpdate = now
		if s.update != nil {
			s.update(ev, ins.Extended)
		}
		for _, b := range s.behaviors {
			if b.Update != nil {
				b.Update(ev, ins.Extended)
			}
		}
	}
}

// lowestCommonAncestor returns the innermost state that is an ancestor of
// (or equal to) both s1 and s2. Since the implicit top state is an
// ancestor of every declared state, this always terminates with a
// non-nil result for two states drawn from the same machine.
func lowestCommonAncestor[E any](s1, s2 *State[E]) *State[E] {
	ancestors := make(map[*State[E]]bool)
	for s := s1; s != nil; s = s.parent {
		ancestors[s] = true
	}
	for s := s2; s != nil; s = s.parent {
		if ancestors[s] {
			return s
		}
	}
	return nil
}
