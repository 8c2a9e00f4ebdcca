package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

type Action string

const (
	ActionPlaceBet        Action = "place_bet"
	ActionBetWin          Action = "bet_win"
	ActionBetLoss         Action = "bet_loss"
	ActionAdminAdjustment Action = "admin_balance_adjustment"
)

type Category string

const (
	CategoryGaming    Category = "gaming"
	CategoryFinancial Category = "financial"
)

// Entry is one descriptive audit line for a user.
type Entry struct {
	UserID      uint64
	Action      Action
	Category    Category
	Description string
	Metadata    map[string]any
}

// Record is a stored audit line.
type Record struct {
	ID          int64
	UserID      uint64
	Action      Action
	Category    Category
	Description string
	Metadata    json.RawMessage
	CreatedAt   time.Time
}

// Log writes audit lines inside the caller's unit of work and reads a
// user's recent ones back.
type Log interface {
	Insert(ctx context.Context, tx *sql.Tx, e Entry) error
	ListByUser(ctx context.Context, userID uint64, limit int) ([]Record, error)
}
