// Package uniq provides an allocator-aware unique handle: a pointer
// carved from a pool.Arena paired with a Release that returns the
// backing bytes. It mirrors a RAII-style unique-ownership helper, though
// Go's garbage collector makes it non-load-bearing for correctness —
// only for keeping the arena's allocation-free-steady-state property.
package uniq

import (
	"errors"
	"unsafe"

	"github.com/arcstate/hsm/pool"
)

// ErrAlreadyReleased is returned by Release when called more than once
// on the same Unique.
var ErrAlreadyReleased = errors.New("uniq: already released")

// Unique owns one T-sized allocation carved out of an Arena. The zero
// value is not usable; create one with New.
type Unique[T any] struct {
	arena    *pool.Arena
	buf      []byte
	value    *T
	released bool
}

// New carves space for a T out of a, zero-value-initializes it, and
// returns a Unique owning that allocation.
func New[T any](a *pool.Arena) (*Unique[T], error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	buf, err := a.Alloc(size, int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	for i := range buf {
		buf[i] = 0
	}
	return &Unique[T]{
		arena: a,
		buf:   buf,
		value: (*T)(unsafe.Pointer(&buf[0])),
	}, nil
}

// Get returns the owned value. It panics if called after Release.
func (u *Unique[T]) Get() *T {
	if u.released {
		panic("uniq: Get called on a released Unique")
	}
	return u.value
}

// Release returns the owned allocation to its arena. Release is
// idempotent-safe to call defensively but returns ErrAlreadyReleased on
// the second and subsequent calls.
func (u *Unique[T]) Release() error {
	if u.released {
		return ErrAlreadyReleased
	}
	u.released = true
	u.arena.Free(u.buf)
	u.value = nil
	return nil
}
