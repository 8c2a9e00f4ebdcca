package bets

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

// Insert writes a pending bet linked to its debit transaction.
func (r *betsRepo) Insert(ctx context.Context, tx *sql.Tx, b bets.NewBet) (int64, error) {
	var id int64

	err := tx.QueryRowContext(ctx, `
		INSERT INTO bets
		(user_id, game_id, transaction_id, bet_amount, outcome, game_data, placed_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, now())
		RETURNING id
	`, b.UserID, b.GameID, b.TransactionID, b.BetAmount, jsonParam(b.GameData)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert bet: %w", err)
	}

	return id, nil
}
