package balances

import (
	"context"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/repos/balances"
)

func (r *balancesRepo) GetBalance(ctx context.Context, userID uint64) (balances.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM user_balances
		WHERE user_id = $1
	`, userID))
	if err != nil {
		return balances.Account{}, fmt.Errorf("get balance: %w", err)
	}

	return a, nil
}
