package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anggasct/transit"
	"github.com/anggasct/transit/pkg/store"
)

// casScript sets KEYS[1] to ARGV[2] when it currently holds ARGV[1].
// ARGV[3] is a TTL in milliseconds; 0 keeps the existing TTL.
const casScript = `
local current = redis.call('GET', KEYS[1])
if current ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[2], 'KEEPTTL')
end
return 1
`

// Client is the subset of redis.UniversalClient the store needs
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Store persists the state of T under one key per target
type Store[T any] struct {
	client  Client
	machine string
	keyOf   func(T) string
	prefix  string
	ttl     time.Duration
}

// Option configures a Store
type Option func(*options)

type options struct {
	prefix string
	ttl    time.Duration
}

// WithKeyPrefix sets the prefix of every key
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithTTL expires state keys after ttl
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// New creates a store for the named machine. keyOf returns the identity of
// a target, unique within the machine.
func New[T any](client Client, machine string, keyOf func(T) string, opts ...Option) *Store[T] {
	o := options{prefix: "transit:"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		client:  client,
		machine: machine,
		keyOf:   keyOf,
		prefix:  o.prefix,
		ttl:     o.ttl,
	}
}

// NewFromConfig creates a store using the prefix and TTL from cfg
func NewFromConfig[T any](client Client, machine string, keyOf func(T) string, cfg Config) *Store[T] {
	return New(client, machine, keyOf, WithKeyPrefix(cfg.KeyPrefix), WithTTL(cfg.TTL))
}

// Key returns the Redis key holding the state of target
func (s *Store[T]) Key(target T) string {
	return s.prefix + s.machine + ":" + s.keyOf(target)
}

// GetState reads the key, "" when it does not exist
func (s *Store[T]) GetState(ctx context.Context, target T) (string, error) {
	state, err := s.client.Get(ctx, s.Key(target)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read state %s: %w", s.Key(target), err)
	}
	return state, nil
}

// InitializeState creates the key with the initial state unless it exists
func (s *Store[T]) InitializeState(ctx context.Context, target T, initial transit.State) error {
	if err := s.client.SetNX(ctx, s.Key(target), initial.Name, s.ttl).Err(); err != nil {
		return fmt.Errorf("initialize state %s: %w", s.Key(target), err)
	}
	return nil
}

func (s *Store[T]) swap(ctx context.Context, key, from, to string) (bool, error) {
	n, err := s.client.Eval(ctx, casScript, []string{key}, from, to, s.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("write state %s: %w", key, err)
	}
	return n == 1, nil
}

// SetState moves the key from t.From() to t.To()
func (s *Store[T]) SetState(ctx context.Context, target T, t *transit.Transition[T]) (bool, error) {
	return s.swap(ctx, s.Key(target), t.From().Name, t.To().Name)
}

// SetStateStrict is SetState returning a *store.ConflictError instead of false
func (s *Store[T]) SetStateStrict(ctx context.Context, target T, t *transit.Transition[T]) error {
	key := s.Key(target)
	ok, err := s.swap(ctx, key, t.From().Name, t.To().Name)
	if err != nil {
		return err
	}
	if !ok {
		actual, err := s.GetState(ctx, target)
		if err != nil {
			return err
		}
		return store.NewConflictError(key, t.From().Name, actual)
	}
	return nil
}

// RevertState moves a persisted key back to t.From()
func (s *Store[T]) RevertState(ctx context.Context, target T, t *transit.Transition[T]) {
	if !t.Persisted() {
		return
	}
	_, _ = s.swap(ctx, s.Key(target), t.To().Name, t.From().Name)
}
