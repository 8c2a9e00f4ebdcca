package ledger

import (
	"context"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/repos/activity"
	"github.com/fastprodman/wagerledger/internal/repos/balances"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/fastprodman/wagerledger/internal/repos/transactions"
)

// GetBalance returns the user's balance and counters (no locks; suitable
// for the GET endpoint).
func (s *Service) GetBalance(ctx context.Context, userID uint64) (balances.Account, error) {
	acc, err := s.balances.GetBalance(ctx, userID)
	if err != nil {
		return balances.Account{}, fmt.Errorf("get balance: %w", classify(err))
	}

	return acc, nil
}

// ListTransactions returns the user's newest transactions first. A
// non-positive limit selects the default page size.
func (s *Service) ListTransactions(ctx context.Context, userID uint64, limit int) ([]transactions.Transaction, error) {
	list, err := s.txns.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", classify(err))
	}

	return list, nil
}

// ListBets returns the user's newest bets first.
func (s *Service) ListBets(ctx context.Context, userID uint64, limit int) ([]bets.Bet, error) {
	list, err := s.bets.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", classify(err))
	}

	return list, nil
}

// ListActivity returns the user's recent audit lines, newest first.
func (s *Service) ListActivity(ctx context.Context, userID uint64, limit int) ([]activity.Record, error) {
	list, err := s.activity.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", classify(err))
	}

	return list, nil
}
