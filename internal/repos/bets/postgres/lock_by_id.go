package bets

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

// LockByID loads a bet and holds its row lock until tx ends, so two
// settlements of one bet run one after the other.
func (r *betsRepo) LockByID(ctx context.Context, tx *sql.Tx, betID int64) (bets.Bet, error) {
	b, err := scanBet(tx.QueryRowContext(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE id = $1
		FOR UPDATE
	`, betID))
	if err != nil {
		return bets.Bet{}, fmt.Errorf("lock bet: %w", err)
	}

	return b, nil
}
