package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anggasct/transit/pkg/store"
)

func TestConflictError(t *testing.T) {
	err := store.NewConflictError("order:1", "received", "accepted")

	assert.Equal(t, "state of order:1 is 'accepted', expected 'received'", err.Error())
	assert.ErrorIs(t, err, store.ErrStateConflict)
	assert.True(t, store.IsConflict(fmt.Errorf("save: %w", err)))
	assert.False(t, store.IsConflict(errors.New("other")))
	assert.False(t, store.IsConflict(store.ErrNotFound))
}
