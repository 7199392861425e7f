// Package eventreg is a bidirectional event-code/name registry, letting
// callers recover a declared event's name from its integer code and
// enumerate every code the registry knows about, in declaration order.
package eventreg

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Registry maps event codes to names and back.
type Registry struct {
	byCode *orderedmap.OrderedMap[int, string]
	byName map[string]int
}

// New builds a Registry assigning dense codes 0..len(names)-1, in the
// order given.
func New(names ...string) *Registry {
	r := &Registry{
		byCode: orderedmap.New[int, string](),
		byName: make(map[string]int, len(names)),
	}
	for i, name := range names {
		r.byCode.Set(i, name)
		r.byName[name] = i
	}
	return r
}

// Name returns the name registered for code, or "" and false if code is
// not registered.
func (r *Registry) Name(code int) (string, bool) {
	return r.byCode.Get(code)
}

// MustName is like Name but panics if code is not registered; useful in
// trace/log call sites where an unregistered code is a programmer error.
func (r *Registry) MustName(code int) string {
	name, ok := r.byCode.Get(code)
	if !ok {
		panic(fmt.Sprintf("eventreg: code %d not registered", code))
	}
	return name
}

// Code returns the code registered for name, or 0 and false if name is
// not registered.
func (r *Registry) Code(name string) (int, bool) {
	code, ok := r.byName[name]
	return code, ok
}

// Len reports how many codes are registered.
func (r *Registry) Len() int {
	return r.byCode.Len()
}

// Each calls f once per registered (code, name) pair, in declaration
// order.
func (r *Registry) Each(f func(code int, name string)) {
	for pair := r.byCode.Oldest(); pair != nil; pair = pair.Next() {
		f(pair.Key, pair.Value)
	}
}

// Mapper returns a function suitable for passing to
// (*hsm.StateMachine[E]).DiagramPUML, resolving event codes to their
// registered names.
func (r *Registry) Mapper() func(int) string {
	return func(code int) string {
		return r.MustName(code)
	}
}
