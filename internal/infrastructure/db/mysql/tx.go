package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/allergytrack/allergy-tracker/internal/pkg/metrics"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx runs fn in a transaction bound to one pooled connection. Unless fn
// returns nil and the commit succeeds, the transaction is rolled back before
// the connection goes back to the pool. A failed rollback is logged and
// never replaces the error that caused it.
func withTx(ctx context.Context, db *sql.DB, log zerolog.Logger, op string, fn func(tx *sql.Tx) error) error {
	start := time.Now()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}

	committed := false
	defer func() {
		outcome := "commit"
		if !committed {
			outcome = "rollback"
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error().Err(rbErr).Str("op", op).Msg("transaction rollback failed")
			}
		}
		metrics.TransactionDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	committed = true
	return nil
}

// exists reports whether query returns at least one row.
func exists(ctx context.Context, q queryer, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, err
	}
}
