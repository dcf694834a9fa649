package transit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackRegistry_ResolveByEdgeAndKind(t *testing.T) {
	r := newCallbackRegistry[*record]()
	ab := Edge{From: "a", To: "b"}
	bc := Edge{From: "b", To: "c"}

	var calls []string
	mark := func(name string) Callback[*record] {
		return func(context.Context, *Transition[*record]) error {
			calls = append(calls, name)
			return nil
		}
	}

	r.register([]Edge{ab, bc}, Before, mark("both"))
	r.register([]Edge{ab}, Before, mark("ab"))
	r.register([]Edge{ab}, After, mark("after"))
	r.registerAround([]Edge{bc}, func(_ context.Context, _ *Transition[*record], next func() error) error {
		return next()
	})

	for _, cb := range r.Resolve(ab, Before) {
		_ = cb(context.Background(), nil)
	}
	assert.Equal(t, []string{"both", "ab"}, calls)

	assert.Equal(t, 2, r.Count(ab, Before))
	assert.Equal(t, 1, r.Count(ab, After))
	assert.Equal(t, 0, r.Count(ab, Success))
	assert.Equal(t, 1, r.Count(bc, Around))
	assert.Len(t, r.Around(bc), 1)
	assert.Empty(t, r.Around(ab))
	assert.Nil(t, r.Resolve(Edge{From: "x", To: "y"}, Before))
	assert.Nil(t, r.Resolve(ab, Around))
	assert.Equal(t, 5, r.Len())
}

func TestCallbackKind_String(t *testing.T) {
	assert.Equal(t, "before", Before.String())
	assert.Equal(t, "after", After.String())
	assert.Equal(t, "around", Around.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "unknown", CallbackKind(42).String())
}

func TestCallbackRegistry_ResolveReturnsCopies(t *testing.T) {
	r := newCallbackRegistry[*record]()
	edge := Edge{From: "a", To: "b"}
	noop := func(context.Context, *Transition[*record]) error { return nil }
	r.register([]Edge{edge}, Before, noop)
	r.registerAround([]Edge{edge}, func(_ context.Context, _ *Transition[*record], next func() error) error {
		return next()
	})

	before := r.Resolve(edge, Before)
	before[0] = nil
	around := r.Around(edge)
	around[0] = nil

	assert.NotNil(t, r.Resolve(edge, Before)[0])
	assert.NotNil(t, r.Around(edge)[0])
}
