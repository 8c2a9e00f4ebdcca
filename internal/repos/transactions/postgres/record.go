package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastprodman/wagerledger/internal/repos/transactions"
)

var ErrDuplicateReference = errors.New("duplicate transaction reference")

func (r *transactionsRepo) Record(ctx context.Context, tx *sql.Tx, e transactions.Entry) (transactions.Recorded, error) {
	if !e.Amount.IsPositive() {
		return transactions.Recorded{}, fmt.Errorf("record transaction: amount must be > 0, got %s", e.Amount)
	}

	rec := transactions.Recorded{Reference: r.newRef()}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO transactions
		(reference, user_id, type, amount, balance_before, balance_after, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		rec.Reference,
		e.UserID,
		string(e.Type),
		e.Amount,
		e.BalanceBefore,
		e.BalanceAfter,
		string(e.Status),
		e.Description,
	).Scan(&rec.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return transactions.Recorded{}, ErrDuplicateReference
			}
		}

		return transactions.Recorded{}, fmt.Errorf("record transaction: %w", err)
	}

	return rec, nil
}
