package balances

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerledger/internal/repos/balances"
)

// Debit takes a stake off the balance and counts it as wagered. The
// balance guard makes an overdraw impossible even without a prior lock.
func (r *balancesRepo) Debit(ctx context.Context, tx *sql.Tx, userID uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	err := requirePositive(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("debit: %w", err)
	}

	var newBalance decimal.Decimal

	err = tx.QueryRowContext(ctx, `
		UPDATE user_balances
		SET balance = balance - $2,
		    total_wagered = total_wagered + $2,
		    updated_at = now()
		WHERE user_id = $1
		  AND balance >= $2
		RETURNING balance
	`, userID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, balances.ErrInsufficientFunds
		}

		return decimal.Zero, fmt.Errorf("debit: %w", err)
	}

	return newBalance, nil
}
