package transit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRegistry(t *testing.T) {
	r := newEventRegistry[*record]("test")

	_, err := r.Register("go")
	require.NoError(t, err)
	_, err = r.Register("stop")
	require.NoError(t, err)

	_, err = r.Register("go")
	assert.ErrorIs(t, err, ErrEventAlreadyRegistered)

	assert.Equal(t, []string{"go", "stop"}, r.Names())
	assert.Equal(t, 2, r.Len())

	ev, ok := r.Get("stop")
	require.True(t, ok)
	assert.Equal(t, "stop", ev.Name())
}

func TestEvent_AddTransition(t *testing.T) {
	states := newStateRegistry("test")
	for _, name := range []string{"a", "b", "c"} {
		_, err := states.Register(name, name == "a")
		require.NoError(t, err)
	}
	store := newTransitionStore[*record]("test")
	ev := newEvent[*record]("go")

	require.NoError(t, ev.addTransition(states, store, States("a", "b"), "c", nil))
	assert.Equal(t, []string{"a", "b"}, ev.Origins())
	assert.Equal(t, []Edge{{From: "a", To: "c"}, {From: "b", To: "c"}}, ev.Edges())

	spec, ok := ev.TransitionFrom("b")
	require.True(t, ok)
	assert.Equal(t, "c", spec.To.Name)

	_, ok = ev.TransitionFrom("c")
	assert.False(t, ok)

	err := ev.addTransition(states, store, States("a"), "b", nil)
	assert.ErrorIs(t, err, ErrTransitionAlreadyRegistered, "one transition per origin within an event")

	err = ev.addTransition(states, store, States("c"), "missing", nil)
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestTransitionStore_UniqueEdges(t *testing.T) {
	states := newStateRegistry("test")
	for _, name := range []string{"a", "b"} {
		_, err := states.Register(name, name == "a")
		require.NoError(t, err)
	}
	store := newTransitionStore[*record]("test")

	first := newEvent[*record]("first")
	second := newEvent[*record]("second")
	require.NoError(t, first.addTransition(states, store, States("a"), "b", nil))

	err := second.addTransition(states, store, States("a"), "b", nil)
	assert.ErrorIs(t, err, ErrTransitionAlreadyRegistered)
	assert.Equal(t, 1, store.Len())

	spec, ok := store.Get(Edge{From: "a", To: "b"})
	require.True(t, ok)
	assert.Equal(t, "first", spec.Event)

	assert.Len(t, store.FromTo([]string{"a"}, []string{"a", "b"}), 1)
	assert.Empty(t, store.FromTo([]string{"b"}, []string{"a"}))
}
