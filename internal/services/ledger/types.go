package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/fastprodman/wagerledger/internal/repos/transactions"
)

// MoneyPlaces is the number of fractional digits money columns store.
const MoneyPlaces = 2

type PlaceBetRequest struct {
	UserID   uint64
	GameID   uint64
	Amount   decimal.Decimal
	GameData json.RawMessage
}

type BetPlacement struct {
	BetID          int64
	TransactionID  int64
	TransactionRef string
	UserID         uint64
	GameID         uint64
	BetAmount      decimal.Decimal
	BalanceBefore  decimal.Decimal
	NewBalance     decimal.Decimal
}

type SettleBetRequest struct {
	BetID      int64
	Outcome    bets.Outcome
	WinAmount  decimal.Decimal
	GameResult json.RawMessage
}

// Settlement is the result of SettleBet. TransactionID and NewBalance are
// set only when a payout was credited. Replayed marks a repeated
// settlement that matched the stored outcome and changed nothing.
type Settlement struct {
	BetID         int64
	UserID        uint64
	Outcome       bets.Outcome
	WinAmount     decimal.Decimal
	TransactionID *int64
	NewBalance    *decimal.Decimal
	ResultAt      time.Time
	Replayed      bool
}

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// AdjustmentRequest is an administrative balance movement. Deposits are
// credits and withdrawals debits; plain adjustments need a Direction.
type AdjustmentRequest struct {
	UserID    uint64
	Type      transactions.Type
	Direction Direction
	Amount    decimal.Decimal
	Reason    string
}

type Adjustment struct {
	TransactionID  int64
	TransactionRef string
	UserID         uint64
	Type           transactions.Type
	Direction      Direction
	Amount         decimal.Decimal
	BalanceBefore  decimal.Decimal
	NewBalance     decimal.Decimal
}

func validMoney(name string, v decimal.Decimal) error {
	if !v.Equal(v.Round(MoneyPlaces)) {
		return fmt.Errorf("%w: %s supports up to %d decimals", ErrInvalidInput, name, MoneyPlaces)
	}

	return nil
}

func validPayload(name string, raw json.RawMessage) error {
	if len(raw) > 0 && !json.Valid(raw) {
		return fmt.Errorf("%w: %s is not valid JSON", ErrInvalidInput, name)
	}

	return nil
}

func (r PlaceBetRequest) validate() error {
	if r.UserID == 0 {
		return fmt.Errorf("%w: user id must be positive", ErrInvalidInput)
	}
	if r.GameID == 0 {
		return fmt.Errorf("%w: game id must be positive", ErrInvalidInput)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: bet amount must be positive", ErrInvalidInput)
	}

	err := validMoney("bet amount", r.Amount)
	if err != nil {
		return err
	}

	return validPayload("game data", r.GameData)
}

func (r SettleBetRequest) validate() error {
	if r.BetID <= 0 {
		return fmt.Errorf("%w: bet id must be positive", ErrInvalidInput)
	}
	if !r.Outcome.Terminal() {
		return fmt.Errorf("%w: outcome must be win or lose", ErrInvalidInput)
	}
	if r.WinAmount.IsNegative() {
		return fmt.Errorf("%w: win amount must be non-negative", ErrInvalidInput)
	}
	if r.Outcome == bets.OutcomeLose && !r.WinAmount.IsZero() {
		return fmt.Errorf("%w: a lost bet cannot carry a win amount", ErrInvalidInput)
	}

	err := validMoney("win amount", r.WinAmount)
	if err != nil {
		return err
	}

	return validPayload("game result", r.GameResult)
}

// normalize fills the implied direction and rejects contradictions.
func (r AdjustmentRequest) normalize() (AdjustmentRequest, error) {
	if r.UserID == 0 {
		return r, fmt.Errorf("%w: user id must be positive", ErrInvalidInput)
	}
	if !r.Amount.IsPositive() {
		return r, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	err := validMoney("amount", r.Amount)
	if err != nil {
		return r, err
	}

	implied := map[transactions.Type]Direction{
		transactions.TypeDeposit:    DirectionCredit,
		transactions.TypeWithdrawal: DirectionDebit,
	}

	switch r.Type {
	case transactions.TypeDeposit, transactions.TypeWithdrawal:
		want := implied[r.Type]
		if r.Direction != "" && r.Direction != want {
			return r, fmt.Errorf("%w: %s is always a %s", ErrInvalidInput, r.Type, want)
		}
		r.Direction = want
	case transactions.TypeAdjustment:
		if r.Direction != DirectionCredit && r.Direction != DirectionDebit {
			return r, fmt.Errorf("%w: adjustment needs direction credit or debit", ErrInvalidInput)
		}
	default:
		return r, fmt.Errorf("%w: unsupported adjustment type %q", ErrInvalidInput, r.Type)
	}

	return r, nil
}
