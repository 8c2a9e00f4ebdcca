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

// SettleBet moves a pending bet to win or lose in a single DB transaction:
//
// 1) Lock the bet row (FOR UPDATE).
// 2) Replay or reject when it is already settled.
// 3) For a paying win, lock the balance row, credit and record the win.
// 4) Resolve the bet and write its activity line.
//
// Locks are taken bet first, balance second.
func (s *Service) SettleBet(ctx context.Context, req SettleBetRequest) (Settlement, error) {
	const op = "settle_bet"

	err := req.validate()
	if err != nil {
		return Settlement{}, s.fail(ctx, op, fmt.Errorf("settle bet: %w", err))
	}

	started := s.now()

	var out Settlement

	err = pgutils.WithTx(ctx, s.db, pgutils.LedgerTxOptions, func(tx *sql.Tx) error {
		// 1) Lock bet row
		bet, err := s.bets.LockByID(ctx, tx, req.BetID)
		if err != nil {
			return fmt.Errorf("lock bet %d: %w", req.BetID, err)
		}

		// 2) Already settled
		if bet.Outcome.Terminal() {
			if bet.Outcome != req.Outcome || !bet.WinAmount.Equal(req.WinAmount) {
				return fmt.Errorf("%w: bet %d is %s with win amount %s", ErrAlreadySettled,
					bet.ID, bet.Outcome, bet.WinAmount.StringFixed(MoneyPlaces))
			}

			out = Settlement{
				BetID:         bet.ID,
				UserID:        bet.UserID,
				Outcome:       bet.Outcome,
				WinAmount:     bet.WinAmount,
				TransactionID: bet.WinTransactionID,
				Replayed:      true,
			}
			if bet.ResultAt != nil {
				out.ResultAt = *bet.ResultAt
			}

			return nil
		}

		out = Settlement{
			BetID:     bet.ID,
			UserID:    bet.UserID,
			Outcome:   req.Outcome,
			WinAmount: req.WinAmount,
		}

		// 3) Payout
		if req.Outcome == bets.OutcomeWin && req.WinAmount.IsPositive() {
			acc, err := s.balances.LockAndGetBalance(ctx, tx, bet.UserID)
			if err != nil {
				return fmt.Errorf("lock and get balance: %w", err)
			}

			newBalance, err := s.balances.Credit(ctx, tx, bet.UserID, req.WinAmount)
			if err != nil {
				return fmt.Errorf("credit: %w", err)
			}

			rec, err := s.txns.Record(ctx, tx, transactions.Entry{
				UserID:        bet.UserID,
				Type:          transactions.TypeWin,
				Amount:        req.WinAmount,
				BalanceBefore: acc.Balance,
				BalanceAfter:  newBalance,
				Status:        transactions.StatusCompleted,
				Description:   fmt.Sprintf("Win from bet #%d", bet.ID),
			})
			if err != nil {
				return fmt.Errorf("record win transaction: %w", err)
			}

			out.TransactionID = &rec.ID
			out.NewBalance = &newBalance
		}

		// 4) Resolve and audit
		resultAt, err := s.bets.Resolve(ctx, tx, bet.ID, bets.Resolution{
			Outcome:          req.Outcome,
			WinAmount:        req.WinAmount,
			WinTransactionID: out.TransactionID,
			GameResult:       req.GameResult,
		})
		if err != nil {
			return fmt.Errorf("resolve bet: %w", err)
		}
		out.ResultAt = resultAt

		err = s.activity.Insert(ctx, tx, settlementActivity(bet, req))
		if err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}

		return nil
	})
	if err != nil {
		return Settlement{}, s.fail(ctx, op, fmt.Errorf("settle bet: %w", classify(err)))
	}

	if out.Replayed {
		zerolog.Ctx(ctx).Info().Int64("bet_id", out.BetID).Msg("bet settlement replayed")
		return out, nil
	}

	s.metrics.ObserveDuration(op, s.now().Sub(started))
	s.metrics.BetSettled(string(out.Outcome), out.WinAmount)

	zerolog.Ctx(ctx).Info().
		Int64("bet_id", out.BetID).
		Uint64("user_id", out.UserID).
		Str("outcome", string(out.Outcome)).
		Str("win_amount", out.WinAmount.StringFixed(MoneyPlaces)).
		Msg("bet settled")

	ev := events.Event{
		Type:    events.TypeBetSettled,
		UserID:  out.UserID,
		BetID:   out.BetID,
		Outcome: string(out.Outcome),
		Amount:  out.WinAmount,
		Balance: out.NewBalance,
	}
	if out.TransactionID != nil {
		ev.TransactionID = *out.TransactionID
	}
	s.publish(ctx, ev)

	return out, nil
}

func settlementActivity(bet bets.Bet, req SettleBetRequest) activity.Entry {
	if req.Outcome == bets.OutcomeWin {
		return activity.Entry{
			UserID:      bet.UserID,
			Action:      activity.ActionBetWin,
			Category:    activity.CategoryGaming,
			Description: fmt.Sprintf("Won %s on bet #%d", req.WinAmount.StringFixed(MoneyPlaces), bet.ID),
			Metadata: map[string]any{
				"bet_id":     bet.ID,
				"win_amount": req.WinAmount.StringFixed(MoneyPlaces),
			},
		}
	}

	return activity.Entry{
		UserID:      bet.UserID,
		Action:      activity.ActionBetLoss,
		Category:    activity.CategoryGaming,
		Description: fmt.Sprintf("Lost bet #%d", bet.ID),
		Metadata: map[string]any{
			"bet_id":     bet.ID,
			"bet_amount": bet.BetAmount.StringFixed(MoneyPlaces),
		},
	}
}
