package games

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrGameNotFound = errors.New("game not found or inactive")

// Game carries the catalog fields the ledger needs: its bet limits.
type Game struct {
	ID     uint64
	Name   string
	MinBet decimal.Decimal
	MaxBet decimal.Decimal
}

// AllowsStake reports whether amount is inside the inclusive limits.
func (g Game) AllowsStake(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(g.MinBet) && amount.LessThanOrEqual(g.MaxBet)
}

// Games is the read-only view of the game catalog.
type Games interface {
	GetActive(ctx context.Context, tx *sql.Tx, gameID uint64) (Game, error)
}
