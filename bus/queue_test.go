package bus_test

import (
	"testing"

	"github.com/arcstate/hsm"
	"github.com/arcstate/hsm/bus"
	"github.com/arcstate/hsm/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePushPop(t *testing.T) {
	q := bus.New(4)
	assert.False(t, q.HasEvents())

	q.Push(hsm.Event{Id: 1})
	q.Push(hsm.Event{Id: 2})
	assert.True(t, q.HasEvents())

	select {
	case <-q.NotifyChan():
	default:
		t.Fatal("expected notification after push")
	}

	ev, ok := q.PopEvent()
	require.True(t, ok)
	assert.Equal(t, 1, ev.Id)

	ev, ok = q.PopEvent()
	require.True(t, ok)
	assert.Equal(t, 2, ev.Id)

	_, ok = q.PopEvent()
	assert.False(t, ok)
}

func TestQueueOverwritesOldestWhenFull(t *testing.T) {
	q := bus.New(2)
	q.Push(hsm.Event{Id: 1})
	q.Push(hsm.Event{Id: 2})
	q.Push(hsm.Event{Id: 3}) // overwrites Id:1

	ev, ok := q.PopEvent()
	require.True(t, ok)
	assert.Equal(t, 2, ev.Id)

	ev, ok = q.PopEvent()
	require.True(t, ok)
	assert.Equal(t, 3, ev.Id)
}

func TestPushPooledCopiesIntoArena(t *testing.T) {
	arena := pool.New(make([]byte, 4096))
	q := bus.NewPooled(4, arena, 16)

	ok := q.PushPooled(7, []byte("hello"))
	require.True(t, ok)

	ev, ok := q.PopEvent()
	require.True(t, ok)
	assert.Equal(t, 7, ev.Id)
	assert.Equal(t, []byte("hello"), ev.Data)
}
