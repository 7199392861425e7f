// Package history implements the dense-index history store used by the hsm
// engine to resume a shallow or deep history pseudo-state. It operates
// purely on integer state-path indices and never imports the hsm package
// itself, so hsm can depend on history without a cycle.
package history

import orderedmap "github.com/wk8/go-ordered-map/v2"

// Store records, for a composite state's path index, the suffix of child
// indices that was active the last time that state was exited. Iteration
// order matches insertion order, which keeps diagram and trace output
// deterministic across runs of the same machine.
type Store struct {
	snapshots *orderedmap.OrderedMap[int, []int]
}

// New returns an empty Store.
func New() *Store {
	return &Store{snapshots: orderedmap.New[int, []int]()}
}

// Record saves suffix as the history snapshot for the composite state at
// index. suffix is the chain of descendant indices from the state's child
// down to the leaf that was active, in outermost-to-innermost order.
// Record replaces any previous snapshot for the same index.
func (s *Store) Record(index int, suffix []int) {
	s.snapshots.Set(index, suffix)
}

// Lookup returns the snapshot recorded for index, and whether one exists. A
// missing snapshot means the state has never been exited before, and the
// caller should fall through to the state's normal initial descent.
func (s *Store) Lookup(index int) ([]int, bool) {
	return s.snapshots.Get(index)
}

// Delete removes any snapshot recorded for index.
func (s *Store) Delete(index int) {
	s.snapshots.Delete(index)
}

// Len reports the number of recorded snapshots.
func (s *Store) Len() int {
	return s.snapshots.Len()
}

// Each calls f once for every recorded snapshot, in insertion order.
func (s *Store) Each(f func(index int, suffix []int)) {
	for pair := s.snapshots.Oldest(); pair != nil; pair = pair.Next() {
		f(pair.Key, pair.Value)
	}
}
