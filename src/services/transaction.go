package services

import (
	"context"
	"errors"
	"fmt"

	"portfolio/src/database"

	"github.com/jackc/pgx/v5"
)

// withTransaction runs fn in one transaction and commits it. Any failure rolls back everything fn wrote and is
// reported as ErrStorageTransaction.
func withTransaction(ctx context.Context, db database.TxBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStorageTransaction, err)
	}
	defer func() {
		// No-op once committed
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		if errors.Is(err, ErrStorageTransaction) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrStorageTransaction, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorageTransaction, err)
	}
	return nil
}

// inSavepoint runs fn inside a savepoint of tx. When fn fails only the savepoint is rolled back and its error is
// returned as rowErr; err is set when tx itself can no longer be used.
func inSavepoint(ctx context.Context, tx pgx.Tx, fn func(sp pgx.Tx) error) (rowErr error, err error) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: savepoint: %v", ErrStorageTransaction, err)
	}
	if rowErr := fn(sp); rowErr != nil {
		if err := sp.Rollback(ctx); err != nil {
			return rowErr, fmt.Errorf("%w: rollback to savepoint: %v", ErrStorageTransaction, err)
		}
		return rowErr, nil
	}
	if err := sp.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: release savepoint: %v", ErrStorageTransaction, err)
	}
	return nil, nil
}
