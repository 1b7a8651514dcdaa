package database

import (
	"context"
	"fmt"
)

// TxRunner runs a function inside a database transaction. Services
// depend on this interface so unit tests can substitute a pass-through
// implementation.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// InTx runs fn inside a transaction. The transaction is stored in the
// context passed to fn, so repository calls made with that context join
// it. Commit happens only if fn returns nil; any error rolls the whole
// transaction back. A ctx that already carries a transaction reuses it.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFrom(ctx); ok {
		return fn(ctx)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Ensure DB implements TxRunner at compile time.
var _ TxRunner = (*DB)(nil)
