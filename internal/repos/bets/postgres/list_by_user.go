package bets

import (
	"context"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListByUser returns the newest bets first.
func (r *betsRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]bets.Bet, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE user_id = $1
		ORDER BY placed_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	out := make([]bets.Bet, 0)

	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}

		out = append(out, b)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate bets: %w", err)
	}

	return out, nil
}
