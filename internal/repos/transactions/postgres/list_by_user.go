package transactions

import (
	"context"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/repos/transactions"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// ListByUser returns the newest entries first.
func (r *transactionsRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]transactions.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, reference, user_id, type, amount, balance_before, balance_after,
		       status, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]transactions.Transaction, 0)

	for rows.Next() {
		var (
			t           transactions.Transaction
			typ, status string
		)

		err = rows.Scan(
			&t.ID,
			&t.Reference,
			&t.UserID,
			&typ,
			&t.Amount,
			&t.BalanceBefore,
			&t.BalanceAfter,
			&status,
			&t.Description,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		t.Type = transactions.Type(typ)
		t.Status = transactions.Status(status)
		out = append(out, t)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}
