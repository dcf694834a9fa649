package transit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineBuilder_Build(t *testing.T) {
	m, err := orderMachine(&recordStrategy{}).Build()
	require.NoError(t, err)

	assert.Equal(t, "order", m.Name())
	assert.Equal(t, "received", m.InitialState().Name)
	assert.Len(t, m.States(), 4)
	assert.Equal(t, []string{"process", "accept", "reject"}, m.EventNames())
	assert.Len(t, m.Transitions(), 4)

	ev, ok := m.Event("reject")
	require.True(t, ok)
	assert.Equal(t, []string{"received", "processed"}, ev.Origins())

	next, ok := m.Next("received")
	require.True(t, ok)
	assert.Equal(t, "processed", next.Name)
	prev, ok := m.Previous("processed")
	require.True(t, ok)
	assert.Equal(t, "received", prev.Name)
}

func TestMachineBuilder_MissingConfiguration(t *testing.T) {
	_, err := NewMachine[*record]("empty").Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingConfiguration)
	assert.Contains(t, err.Error(), "no initial state defined")
	assert.Contains(t, err.Error(), "no state getter configured")
	assert.Contains(t, err.Error(), "no state setter configured")

	_, err = NewMachine[*record]("half").
		Initial("a").
		GetStateWith(&recordStrategy{}).
		Build()
	assert.ErrorIs(t, err, ErrMissingConfiguration)
}

func TestMachineBuilder_DefinitionErrors(t *testing.T) {
	tests := []struct {
		name      string
		configure func(b *MachineBuilder[*record])
		want      error
	}{
		{
			name:      "second initial state",
			configure: func(b *MachineBuilder[*record]) { b.Initial("other") },
			want:      ErrInitialStateAlreadyDefined,
		},
		{
			name:      "duplicate state",
			configure: func(b *MachineBuilder[*record]) { b.State("accepted") },
			want:      ErrStateAlreadyRegistered,
		},
		{
			name: "duplicate event",
			configure: func(b *MachineBuilder[*record]) {
				b.Event("process", func(e *EventBuilder[*record]) { e.Transition(States("accepted"), "received") })
			},
			want: ErrEventAlreadyRegistered,
		},
		{
			name: "same edge under another event",
			configure: func(b *MachineBuilder[*record]) {
				b.Event("approve", func(e *EventBuilder[*record]) { e.Transition(States("processed"), "accepted") })
			},
			want: ErrTransitionAlreadyRegistered,
		},
		{
			name:      "event without transitions",
			configure: func(b *MachineBuilder[*record]) { b.Event("noop", nil) },
			want:      ErrEventWithoutTransitions,
		},
		{
			name: "transition to unknown state",
			configure: func(b *MachineBuilder[*record]) {
				b.Event("archive", func(e *EventBuilder[*record]) { e.Transition(States("accepted"), "archived") })
			},
			want: ErrUnknownState,
		},
		{
			name: "callback on unknown state",
			configure: func(b *MachineBuilder[*record]) {
				b.Before(States("archived"), AnyState(), func(context.Context, *Transition[*record]) error { return nil })
			},
			want: ErrUnknownState,
		},
		{
			name: "event callback on unknown state",
			configure: func(b *MachineBuilder[*record]) {
				b.Event("archive", func(e *EventBuilder[*record]) {
					e.Transition(States("accepted"), "rejected").
						Defuse([]ErrorKind{AnyError}, WithTo(States("archived")))
				})
			},
			want: ErrUnknownState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := orderMachine(&recordStrategy{})
			tt.configure(b)

			_, err := b.Build()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsConfigurationError(err))
		})
	}
}

func TestMachineBuilder_CollectsAllErrors(t *testing.T) {
	_, err := NewMachine[*record]("broken").
		Initial("a").
		State("a").
		Event("go", func(e *EventBuilder[*record]) { e.Transition(States("a"), "b") }).
		Build()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStateAlreadyRegistered)
	assert.ErrorIs(t, err, ErrUnknownState)
	assert.ErrorIs(t, err, ErrEventWithoutTransitions)
	assert.ErrorIs(t, err, ErrMissingConfiguration)
}

func TestMachineBuilder_Sealed(t *testing.T) {
	b := orderMachine(&recordStrategy{})
	m, err := b.Build()
	require.NoError(t, err)

	b.State("late")
	assert.Len(t, m.States(), 4, "configuration after Build must not reach the machine")

	_, err = b.Build()
	assert.ErrorIs(t, err, ErrMachineSealed)
}

func TestMachineBuilder_MustBuild(t *testing.T) {
	assert.Panics(t, func() {
		NewMachine[*record]("broken").MustBuild()
	})
	assert.NotPanics(t, func() {
		orderMachine(&recordStrategy{}).MustBuild()
	})
}

func TestMachineBuilder_WildcardsExpandEagerly(t *testing.T) {
	noop := func(context.Context, *Transition[*record]) error { return nil }

	m := mustBuild(t, NewMachine[*record]("eager").
		Initial("a").
		State("b").
		Before(AnyState(), AnyState(), noop).
		State("c").
		Event("go", func(e *EventBuilder[*record]) { e.Transition(States("a"), "c") }).
		WithStrategy(&recordStrategy{}))

	assert.Equal(t, 1, m.Callbacks().Count(Edge{From: "a", To: "b"}, Before))
	assert.Equal(t, 0, m.Callbacks().Count(Edge{From: "a", To: "c"}, Before), "c was registered after the wildcard")
	assert.Equal(t, 4, m.Callbacks().Len())
}

func TestMachineBuilder_AllStatesExcept(t *testing.T) {
	noop := func(context.Context, *Transition[*record]) error { return nil }

	m := mustBuild(t, orderMachine(&recordStrategy{}).
		After(AllStatesExcept("accepted", "rejected"), States("rejected"), noop))

	assert.Equal(t, 1, m.Callbacks().Count(Edge{From: "received", To: "rejected"}, After))
	assert.Equal(t, 1, m.Callbacks().Count(Edge{From: "processed", To: "rejected"}, After))
	assert.Equal(t, 0, m.Callbacks().Count(Edge{From: "accepted", To: "rejected"}, After))
}

func TestEventBuilder_ScopedCallbacks(t *testing.T) {
	noop := func(context.Context, *Transition[*record]) error { return nil }
	handler := func(context.Context, *Transition[*record], error) (any, error) { return nil, nil }

	m := mustBuild(t, NewMachine[*record]("scoped").
		Initial("a").
		States("b", "c").
		Event("go", func(e *EventBuilder[*record]) {
			e.Transition(States("a", "b"), "c").
				Before(noop).
				After(noop, WithFrom(States("b"))).
				OnSuccess(noop, WithTo(States("c"))).
				OnError(KindIs(errDomain), handler, WithFrom(States("a"))).
				Defuse([]ErrorKind{KindIs(errNotify)})
		}).
		Event("back", func(e *EventBuilder[*record]) { e.Transition(States("c"), "a") }).
		WithStrategy(&recordStrategy{}))

	ac, bc, ca := Edge{From: "a", To: "c"}, Edge{From: "b", To: "c"}, Edge{From: "c", To: "a"}

	assert.Equal(t, 1, m.Callbacks().Count(ac, Before))
	assert.Equal(t, 1, m.Callbacks().Count(bc, Before))
	assert.Equal(t, 0, m.Callbacks().Count(ca, Before), "event callbacks stay on the event's edges")
	assert.Equal(t, 0, m.Callbacks().Count(ac, After))
	assert.Equal(t, 1, m.Callbacks().Count(bc, After))
	assert.Equal(t, 1, m.Callbacks().Count(bc, Success))
	assert.Len(t, m.ErrorCallbacks().Kinds(ac), 1)
	assert.Empty(t, m.ErrorCallbacks().Kinds(bc))
	assert.True(t, m.Defuses().Defuses(errNotify, ac))
	assert.False(t, m.Defuses().Defuses(errNotify, ca))
}

func TestEventBuilder_CallbacksBeforeTransitions(t *testing.T) {
	var calls []string
	note := func(name string) Callback[*record] {
		return func(_ context.Context, tr *Transition[*record]) error {
			calls = append(calls, name+":"+tr.From().Name)
			return nil
		}
	}

	m := mustBuild(t, NewMachine[*record]("early").
		Initial("a").
		States("b", "c").
		Event("go", func(e *EventBuilder[*record]) {
			e.Before(note("before")).
				After(note("after"), WithFrom(States("b"))).
				Defuse([]ErrorKind{KindIs(errNotify)})
			e.Transition(States("a"), "b").
				Transition(States("b"), "c")
		}).
		WithStrategy(&recordStrategy{}))

	assert.Equal(t, 1, m.Callbacks().Count(Edge{From: "a", To: "b"}, Before))
	assert.Equal(t, 1, m.Callbacks().Count(Edge{From: "b", To: "c"}, Before))
	assert.True(t, m.Defuses().Defuses(errNotify, Edge{From: "a", To: "b"}))

	r := &record{}
	_, err := m.Fire(context.Background(), r, "go")
	require.NoError(t, err)
	_, err = m.Fire(context.Background(), r, "go")
	require.NoError(t, err)

	assert.Equal(t, []string{"before:a", "before:b", "after:b"}, calls)
	AssertState(t, m, r, "c")
}

func TestMachine_AllTransitionsFromTo(t *testing.T) {
	m := mustBuild(t, orderMachine(&recordStrategy{}))

	specs, err := m.AllTransitionsFromTo(AnyState(), States("rejected"))
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "reject", specs[0].Event)

	specs, err = m.AllTransitionsFromTo(States("received"), AllStatesExcept("rejected"))
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "processed", specs[0].To.Name)

	_, err = m.AllTransitionsFromTo(States("nope"), AnyState())
	assert.True(t, errors.Is(err, ErrUnknownState))
}
