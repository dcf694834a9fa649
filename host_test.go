package transit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type article struct {
	Review  string
	Channel *channel
}

type channel struct {
	State string
}

func articleHost(t *testing.T) *Host[*article] {
	t.Helper()

	review := mustHostBuild(t, NewMachine[*article]("review").
		Initial("draft").
		States("in_review", "approved").
		Event("submit", func(e *EventBuilder[*article]) { e.Transition(States("draft"), "in_review") }).
		Event("approve", func(e *EventBuilder[*article]) { e.Transition(States("in_review"), "approved") }).
		GetStateWith(GetterFunc[*article](func(_ context.Context, a *article) (string, error) { return a.Review, nil })).
		SetStateWith(SetterFunc[*article](func(_ context.Context, a *article, tr *Transition[*article]) (bool, error) {
			a.Review = tr.To().Name
			return true, nil
		})))

	publishing, err := NewMachine[*channel]("publishing").
		Initial("offline").
		State("online").
		Event("publish", func(e *EventBuilder[*channel]) { e.Transition(States("offline"), "online") }).
		Event("unpublish", func(e *EventBuilder[*channel]) { e.Transition(States("online"), "offline") }).
		GetStateWith(GetterFunc[*channel](func(_ context.Context, c *channel) (string, error) { return c.State, nil })).
		SetStateWith(SetterFunc[*channel](func(_ context.Context, c *channel, tr *Transition[*channel]) (bool, error) {
			c.State = tr.To().Name
			return true, nil
		})).
		Build()
	require.NoError(t, err)

	h := NewHost[*article]("article")
	require.NoError(t, Attach(h, review, Self[*article]))
	require.NoError(t, Attach(h, publishing, func(a *article) *channel { return a.Channel }))
	return h
}

func mustHostBuild(t *testing.T, b *MachineBuilder[*article]) *Machine[*article] {
	t.Helper()
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestHost_Dispatch(t *testing.T) {
	ctx := context.Background()
	h := articleHost(t)
	a := &article{Channel: &channel{}}

	assert.Equal(t, "article", h.Name())
	assert.Equal(t, []string{"review", "publishing"}, h.Machines())
	assert.Equal(t, []string{"submit", "approve", "publish", "unpublish"}, h.Events())

	owner, ok := h.MachineFor("publish")
	require.True(t, ok)
	assert.Equal(t, "publishing", owner)
	_, ok = h.MachineFor("nope")
	assert.False(t, ok)

	_, err := h.Fire(ctx, a, "submit")
	require.NoError(t, err)
	_, err = h.FireStrict(ctx, a, "publish")
	require.NoError(t, err)

	assert.Equal(t, "in_review", a.Review)
	assert.Equal(t, "online", a.Channel.State)

	state, err := h.Current(ctx, a, "publishing")
	require.NoError(t, err)
	assert.Equal(t, "online", state.Name)

	can, err := h.Can(ctx, a, "approve")
	require.NoError(t, err)
	assert.True(t, can)
	can, err = h.Can(ctx, a, "publish")
	require.NoError(t, err)
	assert.False(t, can)
}

func TestHost_Errors(t *testing.T) {
	ctx := context.Background()
	h := articleHost(t)
	a := &article{Channel: &channel{}}

	_, err := h.Fire(ctx, a, "teleport")
	assert.ErrorIs(t, err, ErrUnknownEvent)
	_, err = h.FireStrict(ctx, a, "teleport")
	assert.ErrorIs(t, err, ErrUnknownEvent)
	_, err = h.Can(ctx, a, "teleport")
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = h.Current(ctx, a, "billing")
	assert.ErrorIs(t, err, ErrMissingConfiguration)

	_, err = h.Fire(ctx, a, "approve")
	assert.True(t, IsTransitionNotDefined(err))
}

func TestHost_AttachConflicts(t *testing.T) {
	h := NewHost[*article]("article")
	build := func(name, event string) *Machine[*article] {
		return mustHostBuild(t, NewMachine[*article](name).
			Initial("a").
			State("b").
			Event(event, func(e *EventBuilder[*article]) { e.Transition(States("a"), "b") }).
			GetStateWith(GetterFunc[*article](func(context.Context, *article) (string, error) { return "", nil })).
			SetStateWith(SetterFunc[*article](func(context.Context, *article, *Transition[*article]) (bool, error) { return true, nil })))
	}

	require.NoError(t, Attach(h, build("one", "go"), Self[*article]))

	err := Attach(h, build("one", "other"), Self[*article])
	assert.ErrorIs(t, err, ErrMachineAlreadyAttached)

	err = Attach(h, build("two", "go"), Self[*article])
	assert.ErrorIs(t, err, ErrEventAlreadyRegistered)
	assert.Equal(t, []string{"one"}, h.Machines())

	err = Attach[*article, *article](h, nil, nil)
	assert.ErrorIs(t, err, ErrMissingConfiguration)
}
