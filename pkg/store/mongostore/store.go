package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/anggasct/transit"
	"github.com/anggasct/transit/pkg/store"
)

// Collection is the subset of *mongo.Collection the store needs
type Collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
}

// Document is the stored shape of one target's state
type Document struct {
	ID        string    `bson:"_id"`
	Machine   string    `bson:"machine"`
	State     string    `bson:"state"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store persists the state of T as one document per target
type Store[T any] struct {
	coll    Collection
	machine string
	idOf    func(T) string
	now     func() time.Time
}

// New creates a store for the named machine. idOf returns the identity of a
// target, unique within the machine.
func New[T any](coll Collection, machine string, idOf func(T) string) *Store[T] {
	return &Store[T]{
		coll:    coll,
		machine: machine,
		idOf:    idOf,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// DocumentID returns the _id of the document holding target's state
func (s *Store[T]) DocumentID(target T) string {
	return s.machine + ":" + s.idOf(target)
}

func (s *Store[T]) find(ctx context.Context, id string) (string, error) {
	var doc Document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read state %s: %w", id, err)
	}
	return doc.State, nil
}

// GetState reads the document, "" when it does not exist
func (s *Store[T]) GetState(ctx context.Context, target T) (string, error) {
	return s.find(ctx, s.DocumentID(target))
}

// InitializeState upserts the document with the initial state
func (s *Store[T]) InitializeState(ctx context.Context, target T, initial transit.State) error {
	id := s.DocumentID(target)
	_, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{
			{Key: "machine", Value: s.machine},
			{Key: "state", Value: initial.Name},
			{Key: "updated_at", Value: s.now()},
		}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("initialize state %s: %w", id, err)
	}
	return nil
}

func (s *Store[T]) swap(ctx context.Context, id, from, to string) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "state", Value: from}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "state", Value: to},
			{Key: "updated_at", Value: s.now()},
		}}},
	)
	if err != nil {
		return false, fmt.Errorf("write state %s: %w", id, err)
	}
	return res.MatchedCount == 1, nil
}

// SetState moves the document from t.From() to t.To()
func (s *Store[T]) SetState(ctx context.Context, target T, t *transit.Transition[T]) (bool, error) {
	return s.swap(ctx, s.DocumentID(target), t.From().Name, t.To().Name)
}

// SetStateStrict is SetState returning a *store.ConflictError instead of false
func (s *Store[T]) SetStateStrict(ctx context.Context, target T, t *transit.Transition[T]) error {
	id := s.DocumentID(target)
	ok, err := s.swap(ctx, id, t.From().Name, t.To().Name)
	if err != nil {
		return err
	}
	if !ok {
		actual, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		return store.NewConflictError(id, t.From().Name, actual)
	}
	return nil
}

// RevertState moves a persisted document back to t.From()
func (s *Store[T]) RevertState(ctx context.Context, target T, t *transit.Transition[T]) {
	if !t.Persisted() {
		return
	}
	_, _ = s.swap(ctx, s.DocumentID(target), t.To().Name, t.From().Name)
}
