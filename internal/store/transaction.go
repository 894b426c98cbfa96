package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// RunInTransaction executes the given function within a database transaction.
// It handles beginning the transaction, committing on success, and rolling
// back on error or panic. The function receives the transaction handle and
// should perform all of its store operations through stores bound to that
// transaction (see the WithTx methods on the store interfaces).
//
// If fn returns an error the transaction is rolled back and the error is
// returned wrapped in ErrTransactionFailed. If fn panics the transaction is
// rolled back and the panic is re-raised.
func RunInTransaction(
	ctx context.Context,
	db *sql.DB,
	logger *slog.Logger,
	fn func(ctx context.Context, tx *sql.Tx) error,
) error {
	log := logger.With("component", "transaction")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.ErrorContext(ctx, "failed to begin transaction", "error", err)
		return fmt.Errorf("%w: begin: %v", ErrTransactionFailed, err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				log.ErrorContext(ctx, "failed to rollback transaction after panic",
					"error", rbErr, "panic", p)
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.ErrorContext(ctx, "failed to rollback transaction",
				"rollback_error", rbErr, "original_error", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		log.ErrorContext(ctx, "failed to commit transaction", "error", err)
		return fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}

	return nil
}
