// Package postgres persists machine states in a PostgreSQL table through
// github.com/jackc/pgx/v5 and runs each transition in a database
// transaction.
//
// States live in one row per (machine, record) pair. Writes are
// compare-and-set on the origin state, and the before, around and after
// callbacks run inside the same transaction as the write, so a failing after
// callback rolls the state change back. Callbacks reach the open
// transaction with TxFromContext.
//
//	pool, err := postgres.Connect(ctx, cfg)
//	if err != nil { ... }
//	store := postgres.New[*Order](pool, "order")
//	if err := store.Migrate(ctx); err != nil { ... }
//
//	m := transit.NewMachine[*Order]("order").
//	    WithStrategy(store).
//	    ...
package postgres
