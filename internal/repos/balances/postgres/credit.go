package balances

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerledger/internal/repos/balances"
)

// Credit pays out winnings and counts them as won.
func (r *balancesRepo) Credit(ctx context.Context, tx *sql.Tx, userID uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	err := requirePositive(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("credit: %w", err)
	}

	var newBalance decimal.Decimal

	err = tx.QueryRowContext(ctx, `
		UPDATE user_balances
		SET balance = balance + $2,
		    total_won = total_won + $2,
		    updated_at = now()
		WHERE user_id = $1
		RETURNING balance
	`, userID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, balances.ErrAccountNotFound
		}

		return decimal.Zero, fmt.Errorf("credit: %w", err)
	}

	return newBalance, nil
}
