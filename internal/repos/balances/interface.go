package balances

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound   = errors.New("balance account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Account is a user's balance row with its lifetime counters.
type Account struct {
	UserID         uint64
	Balance        decimal.Decimal
	TotalWagered   decimal.Decimal
	TotalWon       decimal.Decimal
	TotalDeposited decimal.Decimal
	TotalWithdrawn decimal.Decimal
}

// Balances is the Balance Store. Every mutator runs on the caller's
// transaction and returns the balance produced by that statement.
type Balances interface {
	GetBalance(ctx context.Context, userID uint64) (Account, error)
	LockAndGetBalance(ctx context.Context, tx *sql.Tx, userID uint64) (Account, error)
	Debit(ctx context.Context, tx *sql.Tx, userID uint64, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, tx *sql.Tx, userID uint64, amount decimal.Decimal) (decimal.Decimal, error)
	Deposit(ctx context.Context, tx *sql.Tx, userID uint64, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, tx *sql.Tx, userID uint64, amount decimal.Decimal) (decimal.Decimal, error)
	Adjust(ctx context.Context, tx *sql.Tx, userID uint64, delta decimal.Decimal) (decimal.Decimal, error)
}
