package repository

import (
	"context"
	"database/sql"
)

// WithTx runs fn inside a transaction. The transaction is rolled back when
// fn returns an error and committed otherwise. Rollback errors after a
// failed fn are discarded; the original error wins.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
