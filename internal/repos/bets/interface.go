package bets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrBetNotFound = errors.New("bet not found")
	// ErrNotPending is returned by Resolve when the bet already left the
	// pending state.
	ErrNotPending = errors.New("bet is not pending")
)

type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeWin     Outcome = "win"
	OutcomeLose    Outcome = "lose"
)

// Terminal reports whether o is a final outcome.
func (o Outcome) Terminal() bool {
	return o == OutcomeWin || o == OutcomeLose
}

type Bet struct {
	ID               int64
	UserID           uint64
	GameID           uint64
	TransactionID    int64
	WinTransactionID *int64
	BetAmount        decimal.Decimal
	Outcome          Outcome
	WinAmount        decimal.Decimal
	GameData         json.RawMessage
	GameResult       json.RawMessage
	PlacedAt         time.Time
	ResultAt         *time.Time
}

// NewBet is a pending bet to insert.
type NewBet struct {
	UserID        uint64
	GameID        uint64
	TransactionID int64
	BetAmount     decimal.Decimal
	GameData      json.RawMessage
}

// Resolution moves a pending bet to its terminal outcome.
type Resolution struct {
	Outcome          Outcome
	WinAmount        decimal.Decimal
	WinTransactionID *int64
	GameResult       json.RawMessage
}

// Bets is the Wager Ledger.
type Bets interface {
	Insert(ctx context.Context, tx *sql.Tx, b NewBet) (int64, error)
	LockByID(ctx context.Context, tx *sql.Tx, betID int64) (Bet, error)
	Resolve(ctx context.Context, tx *sql.Tx, betID int64, res Resolution) (time.Time, error)
	ListByUser(ctx context.Context, userID uint64, limit int) ([]Bet, error)
}
