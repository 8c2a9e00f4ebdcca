package balances

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/repos/balances"
)

func (r *balancesRepo) LockAndGetBalance(ctx context.Context, tx *sql.Tx, userID uint64) (balances.Account, error) {
	a, err := scanAccount(tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM user_balances
		WHERE user_id = $1
		FOR UPDATE
	`, userID))
	if err != nil {
		return balances.Account{}, fmt.Errorf("lock/get balance: %w", err)
	}

	return a, nil
}
