package balances

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerledger/internal/repos/balances"
)

var _ balances.Balances = (*balancesRepo)(nil)

type balancesRepo struct{ db *sql.DB }

func New(db *sql.DB) *balancesRepo {
	return &balancesRepo{db: db}
}

const accountColumns = `
	user_id, balance, total_wagered, total_won, total_deposited, total_withdrawn
`

func scanAccount(row *sql.Row) (balances.Account, error) {
	var a balances.Account

	err := row.Scan(
		&a.UserID,
		&a.Balance,
		&a.TotalWagered,
		&a.TotalWon,
		&a.TotalDeposited,
		&a.TotalWithdrawn,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return balances.Account{}, balances.ErrAccountNotFound
		}

		return balances.Account{}, err
	}

	return a, nil
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be > 0, got %s", amount)
	}

	return nil
}
