package db

import (
	"context"
	"errors"

	"github.com/avast/retry-go"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const txAttempts = 3

// WithTx runs fn inside a transaction. The transaction is rolled back when
// fn returns an error and committed otherwise. A serialization failure or
// deadlock reported by the store replays fn from the top, at most
// txAttempts times; business errors are returned as-is.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	return retry.Do(
		func() error {
			tx, err := db.BeginTxx(ctx, nil)
			if err != nil {
				return err
			}
			defer tx.Rollback()

			if err := fn(tx); err != nil {
				return err
			}

			return tx.Commit()
		},
		retry.Attempts(txAttempts),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
	)
}

// isRetryable reports whether the store asked the client to replay the
// transaction: SQLSTATE 40001 (serialization_failure) or 40P01
// (deadlock_detected).
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
