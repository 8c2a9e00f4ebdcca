package transactions

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeBet        Type = "bet"
	TypeWin        Type = "win"
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
	TypeAdjustment Type = "adjustment"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Entry is a balance-affecting event to append. Amount is a positive
// magnitude; direction follows from Type.
type Entry struct {
	UserID        uint64
	Type          Type
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Status        Status
	Description   string
}

// Recorded identifies a written entry.
type Recorded struct {
	ID        int64
	Reference string
}

// Transaction is a stored log row.
type Transaction struct {
	ID            int64
	Reference     string
	UserID        uint64
	Type          Type
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Status        Status
	Description   string
	CreatedAt     time.Time
}

// Transactions is the append-only Transaction Log.
type Transactions interface {
	Record(ctx context.Context, tx *sql.Tx, e Entry) (Recorded, error)
	ListByUser(ctx context.Context, userID uint64, limit int) ([]Transaction, error)
}
