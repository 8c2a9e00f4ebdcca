package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fastprodman/wagerledger/internal/events"
	"github.com/fastprodman/wagerledger/internal/infra/pgutils"
	"github.com/fastprodman/wagerledger/internal/repos/activity"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/fastprodman/wagerledger/internal/repos/transactions"
)

// PlaceBet runs the full flow in a single DB transaction:
//
// 1) Load the active game and check the stake against its limits.
// 2) Lock the balance row (FOR UPDATE) and check funds.
// 3) Debit and record the bet transaction with its before/after snapshot.
// 4) Insert the pending bet and its activity line.
func (s *Service) PlaceBet(ctx context.Context, req PlaceBetRequest) (BetPlacement, error) {
	const op = "place_bet"

	err := req.validate()
	if err != nil {
		return BetPlacement{}, s.fail(ctx, op, fmt.Errorf("place bet: %w", err))
	}

	started := s.now()

	var out BetPlacement

	err = pgutils.WithTx(ctx, s.db, pgutils.LedgerTxOptions, func(tx *sql.Tx) error {
		// 1) Game and limits
		game, err := s.games.GetActive(ctx, tx, req.GameID)
		if err != nil {
			return fmt.Errorf("load game %d: %w", req.GameID, err)
		}

		if !game.AllowsStake(req.Amount) {
			return fmt.Errorf("%w: %s not in [%s, %s]", ErrInvalidBetAmount,
				req.Amount.StringFixed(MoneyPlaces), game.MinBet.StringFixed(MoneyPlaces), game.MaxBet.StringFixed(MoneyPlaces))
		}

		// 2) Lock balance row
		acc, err := s.balances.LockAndGetBalance(ctx, tx, req.UserID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		// pre-check against locked balance
		if acc.Balance.LessThan(req.Amount) {
			return fmt.Errorf("pre-check debit: %w", ErrInsufficientFunds)
		}

		// 3) Debit and record
		newBalance, err := s.balances.Debit(ctx, tx, req.UserID, req.Amount)
		if err != nil {
			return fmt.Errorf("debit: %w", err)
		}

		if !newBalance.Equal(acc.Balance.Sub(req.Amount)) {
			return fmt.Errorf("debit: balance moved from %s to %s for stake %s", acc.Balance, newBalance, req.Amount)
		}

		rec, err := s.txns.Record(ctx, tx, transactions.Entry{
			UserID:        req.UserID,
			Type:          transactions.TypeBet,
			Amount:        req.Amount,
			BalanceBefore: acc.Balance,
			BalanceAfter:  newBalance,
			Status:        transactions.StatusCompleted,
			Description:   "Bet placed on " + game.Name,
		})
		if err != nil {
			return fmt.Errorf("record bet transaction: %w", err)
		}

		// 4) Pending bet and audit line
		betID, err := s.bets.Insert(ctx, tx, bets.NewBet{
			UserID:        req.UserID,
			GameID:        req.GameID,
			TransactionID: rec.ID,
			BetAmount:     req.Amount,
			GameData:      req.GameData,
		})
		if err != nil {
			return fmt.Errorf("insert bet: %w", err)
		}

		err = s.activity.Insert(ctx, tx, activity.Entry{
			UserID:      req.UserID,
			Action:      activity.ActionPlaceBet,
			Category:    activity.CategoryGaming,
			Description: fmt.Sprintf("Placed bet of %s on %s", req.Amount.StringFixed(MoneyPlaces), game.Name),
			Metadata: map[string]any{
				"bet_id":     betID,
				"game_id":    req.GameID,
				"bet_amount": req.Amount.StringFixed(MoneyPlaces),
			},
		})
		if err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}

		out = BetPlacement{
			BetID:          betID,
			TransactionID:  rec.ID,
			TransactionRef: rec.Reference,
			UserID:         req.UserID,
			GameID:         req.GameID,
			BetAmount:      req.Amount,
			BalanceBefore:  acc.Balance,
			NewBalance:     newBalance,
		}

		return nil
	})
	if err != nil {
		return BetPlacement{}, s.fail(ctx, op, fmt.Errorf("place bet: %w", classify(err)))
	}

	s.metrics.ObserveDuration(op, s.now().Sub(started))
	s.metrics.BetPlaced(out.BetAmount)

	zerolog.Ctx(ctx).Info().
		Int64("bet_id", out.BetID).
		Uint64("user_id", out.UserID).
		Uint64("game_id", out.GameID).
		Str("amount", out.BetAmount.StringFixed(MoneyPlaces)).
		Msg("bet placed")

	s.publish(ctx, events.Event{
		Type:          events.TypeBetPlaced,
		UserID:        out.UserID,
		BetID:         out.BetID,
		TransactionID: out.TransactionID,
		Amount:        out.BetAmount,
		Balance:       &out.NewBalance,
	})

	return out, nil
}
