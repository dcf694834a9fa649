package mongostore_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/anggasct/transit"
	"github.com/anggasct/transit/pkg/store"
	"github.com/anggasct/transit/pkg/store/mongostore"
)

func field(d bson.D, key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// fakeCollection applies the filter and update documents the store sends
type fakeCollection struct {
	mu   sync.Mutex
	docs map[string]mongostore.Document
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: make(map[string]mongostore.Document)}
}

func (c *fakeCollection) FindOne(_ context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, _ := field(filter.(bson.D), "_id")
	doc, ok := c.docs[id.(string)]
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func (c *fakeCollection) UpdateOne(_ context.Context, filter any, update any, _ ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := filter.(bson.D)
	u := update.(bson.D)
	id, _ := field(f, "_id")
	key := id.(string)

	if insert, ok := field(u, "$setOnInsert"); ok {
		if _, exists := c.docs[key]; exists {
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		}
		values := insert.(bson.D)
		machine, _ := field(values, "machine")
		state, _ := field(values, "state")
		c.docs[key] = mongostore.Document{ID: key, Machine: machine.(string), State: state.(string)}
		return &mongo.UpdateResult{UpsertedCount: 1, UpsertedID: key}, nil
	}

	doc, exists := c.docs[key]
	if want, ok := field(f, "state"); !exists || (ok && doc.State != want.(string)) {
		return &mongo.UpdateResult{}, nil
	}
	set, _ := field(u, "$set")
	state, _ := field(set.(bson.D), "state")
	doc.State = state.(string)
	c.docs[key] = doc
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (c *fakeCollection) state(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docs[id].State
}

type shipment struct{ Tracking string }

func trackingOf(s *shipment) string { return s.Tracking }

func shipmentMachine(t *testing.T, s *mongostore.Store[*shipment], configure ...func(b *transit.MachineBuilder[*shipment])) *transit.Machine[*shipment] {
	t.Helper()
	b := transit.NewMachine[*shipment]("shipment").
		Initial("label_created").
		States("in_transit", "delivered").
		Event("dispatch", func(e *transit.EventBuilder[*shipment]) {
			e.Transition(transit.States("label_created"), "in_transit")
		}).
		Event("deliver", func(e *transit.EventBuilder[*shipment]) {
			e.Transition(transit.States("in_transit"), "delivered")
		}).
		WithStrategy(s)
	for _, c := range configure {
		c(b)
	}
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestStore_Fire(t *testing.T) {
	ctx := context.Background()
	coll := newFakeCollection()
	s := mongostore.New(coll, "shipment", trackingOf)
	m := shipmentMachine(t, s)

	sh := &shipment{Tracking: "TRK1"}
	assert.Equal(t, "shipment:TRK1", s.DocumentID(sh))

	_, err := m.Fire(ctx, sh, "dispatch")
	require.NoError(t, err)
	_, err = m.FireStrict(ctx, sh, "deliver")
	require.NoError(t, err)

	assert.Equal(t, "delivered", coll.state("shipment:TRK1"))
	state, err := m.Current(ctx, sh)
	require.NoError(t, err)
	assert.Equal(t, "delivered", state.Name)
}

func TestStore_Conflict(t *testing.T) {
	ctx := context.Background()
	coll := newFakeCollection()
	s := mongostore.New(coll, "shipment", trackingOf)
	m := shipmentMachine(t, s, func(b *transit.MachineBuilder[*shipment]) {
		b.Before(transit.AnyState(), transit.States("in_transit"), func(_ context.Context, tr *transit.Transition[*shipment]) error {
			coll.mu.Lock()
			doc := coll.docs[s.DocumentID(tr.Target())]
			doc.State = "delivered"
			coll.docs[doc.ID] = doc
			coll.mu.Unlock()
			return nil
		})
	})

	res, err := m.Fire(ctx, &shipment{Tracking: "A"}, "dispatch")
	require.NoError(t, err)
	assert.True(t, res.Halted)

	_, err = m.FireStrict(ctx, &shipment{Tracking: "B"}, "dispatch")
	require.True(t, store.IsConflict(err))
	var conflict *store.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "shipment:B", conflict.Key)
	assert.Equal(t, "delivered", conflict.Actual)
}

func TestStore_RevertAfterFailure(t *testing.T) {
	ctx := context.Background()
	coll := newFakeCollection()
	s := mongostore.New(coll, "shipment", trackingOf)
	errCarrier := errors.New("carrier rejected pickup")
	m := shipmentMachine(t, s, func(b *transit.MachineBuilder[*shipment]) {
		b.After(transit.AnyState(), transit.States("in_transit"), func(context.Context, *transit.Transition[*shipment]) error {
			return errCarrier
		})
	})

	_, err := m.Fire(ctx, &shipment{Tracking: "C"}, "dispatch")
	require.ErrorIs(t, err, errCarrier)
	assert.Equal(t, "label_created", coll.state("shipment:C"))
}
