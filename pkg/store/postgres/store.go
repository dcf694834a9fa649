package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/anggasct/transit"
	"github.com/anggasct/transit/pkg/store"
)

// Record is a target stored as a row. State and SetState mirror the stored
// value in memory.
type Record interface {
	RecordID() string
	State() string
	SetState(state string)
}

// Querier is the statement surface shared by pools and transactions
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is the subset of *pgxpool.Pool the store needs
type DB interface {
	Querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type txKey struct{}

// TxFromContext returns the transaction opened for the running transition
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// Store is a transactional persistence strategy for Record targets
type Store[T Record] struct {
	db      DB
	machine string
	table   string
	txOpts  pgx.TxOptions
}

// Option configures a Store
type Option func(*options)

type options struct {
	table  string
	txOpts pgx.TxOptions
}

// WithTable sets the state table name
func WithTable(table string) Option {
	return func(o *options) {
		if table != "" {
			o.table = table
		}
	}
}

// WithTxOptions sets the options of the per-transition transaction
func WithTxOptions(txOpts pgx.TxOptions) Option {
	return func(o *options) { o.txOpts = txOpts }
}

// New creates a store for the named machine
func New[T Record](db DB, machine string, opts ...Option) *Store[T] {
	o := options{table: "transit_states"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		db:      db,
		machine: machine,
		table:   pgx.Identifier{o.table}.Sanitize(),
		txOpts:  o.txOpts,
	}
}

// NewFromConfig creates a store using the table named in cfg
func NewFromConfig[T Record](db DB, machine string, cfg Config, opts ...Option) *Store[T] {
	return New[T](db, machine, append([]Option{WithTable(cfg.Table)}, opts...)...)
}

// Schema returns the DDL of the state table
func (s *Store[T]) Schema() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	machine    TEXT        NOT NULL,
	record_id  TEXT        NOT NULL,
	state      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (machine, record_id)
)`, s.table)
}

// Migrate creates the state table when missing
func (s *Store[T]) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, s.Schema()); err != nil {
		return errors.Join(ErrFailedToMigrate, err)
	}
	return nil
}

func (s *Store[T]) querier(ctx context.Context) Querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store[T]) read(ctx context.Context, id string) (string, error) {
	var state string
	err := s.querier(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT state FROM %s WHERE machine = $1 AND record_id = $2`, s.table),
		s.machine, id,
	).Scan(&state)
	if IsNotFoundError(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read state of %s: %w", id, err)
	}
	return state, nil
}

// GetState reads the stored state, "" when the record has no row yet
func (s *Store[T]) GetState(ctx context.Context, target T) (string, error) {
	state, err := s.read(ctx, target.RecordID())
	if err != nil {
		return "", err
	}
	if state != "" {
		target.SetState(state)
	}
	return state, nil
}

// InitializeState inserts the row with the initial state
func (s *Store[T]) InitializeState(ctx context.Context, target T, initial transit.State) error {
	_, err := s.querier(ctx).Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (machine, record_id, state) VALUES ($1, $2, $3) ON CONFLICT (machine, record_id) DO NOTHING`, s.table),
		s.machine, target.RecordID(), initial.Name,
	)
	if err != nil {
		return fmt.Errorf("initialize state of %s: %w", target.RecordID(), err)
	}
	target.SetState(initial.Name)
	return nil
}

func (s *Store[T]) update(ctx context.Context, target T, t *transit.Transition[T]) (bool, error) {
	tag, err := s.querier(ctx).Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET state = $1, updated_at = now() WHERE machine = $2 AND record_id = $3 AND state = $4`, s.table),
		t.To().Name, s.machine, target.RecordID(), t.From().Name,
	)
	if err != nil {
		return false, fmt.Errorf("write state of %s: %w", target.RecordID(), err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	target.SetState(t.To().Name)
	return true, nil
}

// SetState writes t.To() if the row still holds t.From()
func (s *Store[T]) SetState(ctx context.Context, target T, t *transit.Transition[T]) (bool, error) {
	return s.update(ctx, target, t)
}

// SetStateStrict is SetState returning a *store.ConflictError instead of false
func (s *Store[T]) SetStateStrict(ctx context.Context, target T, t *transit.Transition[T]) error {
	ok, err := s.update(ctx, target, t)
	if err != nil {
		return err
	}
	if !ok {
		actual, err := s.read(ctx, target.RecordID())
		if err != nil {
			return err
		}
		return store.NewConflictError(target.RecordID(), t.From().Name, actual)
	}
	return nil
}

// RevertState resets the in-memory mirror; the rolled back row needs nothing
func (s *Store[T]) RevertState(_ context.Context, target T, t *transit.Transition[T]) {
	target.SetState(t.From().Name)
}

// InTransaction runs fn in a transaction, committing when fn returns nil
func (s *Store[T]) InTransaction(ctx context.Context, _ T, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, s.txOpts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
