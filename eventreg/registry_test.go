package eventreg_test

import (
	"testing"

	"github.com/arcstate/hsm/eventreg"
	"github.com/stretchr/testify/assert"
)

func TestRegistryRoundTrip(t *testing.T) {
	r := eventreg.New("evOpen", "evClose", "evBake")

	name, ok := r.Name(1)
	assert.True(t, ok)
	assert.Equal(t, "evClose", name)

	code, ok := r.Code("evBake")
	assert.True(t, ok)
	assert.Equal(t, 2, code)

	_, ok = r.Name(99)
	assert.False(t, ok)

	assert.Equal(t, 3, r.Len())
}

func TestRegistryEachPreservesOrder(t *testing.T) {
	r := eventreg.New("c", "a", "b")
	var seen []string
	r.Each(func(code int, name string) { seen = append(seen, name) })
	assert.Equal(t, []string{"c", "a", "b"}, seen)
}

func TestMustNamePanicsOnUnknownCode(t *testing.T) {
	r := eventreg.New("only")
	assert.Panics(t, func() { r.MustName(5) })
}
