package bets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

// Resolve records the outcome of a pending bet. The pending guard makes
// the transition one-shot even for callers that skipped LockByID.
func (r *betsRepo) Resolve(ctx context.Context, tx *sql.Tx, betID int64, res bets.Resolution) (time.Time, error) {
	if !res.Outcome.Terminal() {
		return time.Time{}, fmt.Errorf("resolve bet: invalid outcome %q", res.Outcome)
	}

	var resultAt time.Time

	err := tx.QueryRowContext(ctx, `
		UPDATE bets
		SET outcome = $2,
		    win_amount = $3,
		    win_transaction_id = $4,
		    game_result = $5,
		    result_at = now()
		WHERE id = $1
		  AND outcome = 'pending'
		RETURNING result_at
	`, betID, string(res.Outcome), res.WinAmount, nullInt64(res.WinTransactionID), jsonParam(res.GameResult)).Scan(&resultAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, bets.ErrNotPending
		}

		return time.Time{}, fmt.Errorf("resolve bet: %w", err)
	}

	return resultAt.UTC(), nil
}
