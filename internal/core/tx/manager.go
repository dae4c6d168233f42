// Package tx defines the transaction management contract that decouples
// domain services from the concrete database implementation.
package tx

import "context"

// Manager runs a function inside a database transaction.
//
// Domain services depend on this interface; the pgx-backed implementation
// lives in infrastructure/storage/postgres. Movement recording relies on it
// to keep the ledger append and the alert evaluation atomic, and document
// services to keep numbering, lines and outbox events in one unit of work.
type Manager interface {
	// RunInTransaction executes fn within a transaction: rollback when fn
	// returns an error, commit otherwise. Nested calls join the transaction
	// already carried by ctx instead of opening a new one.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support,
// used by report queries that need a consistent snapshot without locks.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction; writes inside fn fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
