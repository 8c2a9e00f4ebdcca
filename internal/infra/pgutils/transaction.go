package pgutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LedgerTxOptions is the isolation used by balance-affecting units of
// work. Row locks taken with FOR UPDATE serialise writers per account.
var LedgerTxOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// WithTx runs fn inside a transaction.
// It commits if fn returns nil, otherwise it rolls back. A panic inside fn
// rolls back and is re-raised. The error returned by fn is passed through
// unwrapped so callers can classify it.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		p := recover()
		if p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
