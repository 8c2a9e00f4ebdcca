package balances

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerledger/internal/repos/balances"
)

// Admin movements. Each one is a fixed statement naming its own counter
// column; callers cannot choose columns.

func (r *balancesRepo) Deposit(ctx context.Context, tx *sql.Tx, userID uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	err := requirePositive(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("deposit: %w", err)
	}

	newBalance, err := r.apply(ctx, tx, `
		UPDATE user_balances
		SET balance = balance + $2,
		    total_deposited = total_deposited + $2,
		    updated_at = now()
		WHERE user_id = $1
		RETURNING balance
	`, userID, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("deposit: %w", err)
	}

	return newBalance, nil
}

func (r *balancesRepo) Withdraw(ctx context.Context, tx *sql.Tx, userID uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	err := requirePositive(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("withdraw: %w", err)
	}

	newBalance, err := r.apply(ctx, tx, `
		UPDATE user_balances
		SET balance = balance - $2,
		    total_withdrawn = total_withdrawn + $2,
		    updated_at = now()
		WHERE user_id = $1
		  AND balance >= $2
		RETURNING balance
	`, userID, amount)
	if err != nil {
		if errors.Is(err, balances.ErrAccountNotFound) {
			return decimal.Zero, balances.ErrInsufficientFunds
		}

		return decimal.Zero, fmt.Errorf("withdraw: %w", err)
	}

	return newBalance, nil
}

// Adjust applies a signed correction without touching lifetime counters.
func (r *balancesRepo) Adjust(ctx context.Context, tx *sql.Tx, userID uint64, delta decimal.Decimal) (decimal.Decimal, error) {
	if delta.IsZero() {
		return decimal.Zero, errors.New("adjust: delta must be non-zero")
	}

	newBalance, err := r.apply(ctx, tx, `
		UPDATE user_balances
		SET balance = balance + $2,
		    updated_at = now()
		WHERE user_id = $1
		  AND balance + $2 >= 0
		RETURNING balance
	`, userID, delta)
	if err != nil {
		if errors.Is(err, balances.ErrAccountNotFound) && delta.IsNegative() {
			return decimal.Zero, balances.ErrInsufficientFunds
		}

		return decimal.Zero, fmt.Errorf("adjust: %w", err)
	}

	return newBalance, nil
}

func (r *balancesRepo) apply(ctx context.Context, tx *sql.Tx, query string, userID uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal

	err := tx.QueryRowContext(ctx, query, userID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, balances.ErrAccountNotFound
		}

		return decimal.Zero, err
	}

	return newBalance, nil
}
