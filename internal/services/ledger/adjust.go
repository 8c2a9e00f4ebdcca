package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerledger/internal/events"
	"github.com/fastprodman/wagerledger/internal/infra/pgutils"
	"github.com/fastprodman/wagerledger/internal/repos/activity"
	"github.com/fastprodman/wagerledger/internal/repos/transactions"
)

// AdjustBalance applies an administrative deposit, withdrawal or
// correction under the balance row lock and records it.
func (s *Service) AdjustBalance(ctx context.Context, req AdjustmentRequest) (Adjustment, error) {
	const op = "adjust_balance"

	req, err := req.normalize()
	if err != nil {
		return Adjustment{}, s.fail(ctx, op, fmt.Errorf("adjust balance: %w", err))
	}

	started := s.now()

	var out Adjustment

	err = pgutils.WithTx(ctx, s.db, pgutils.LedgerTxOptions, func(tx *sql.Tx) error {
		acc, err := s.balances.LockAndGetBalance(ctx, tx, req.UserID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		if req.Direction == DirectionDebit && acc.Balance.LessThan(req.Amount) {
			return fmt.Errorf("pre-check %s: %w", req.Type, ErrInsufficientFunds)
		}

		var newBalance decimal.Decimal

		switch req.Type {
		case transactions.TypeDeposit:
			newBalance, err = s.balances.Deposit(ctx, tx, req.UserID, req.Amount)
		case transactions.TypeWithdrawal:
			newBalance, err = s.balances.Withdraw(ctx, tx, req.UserID, req.Amount)
		default:
			delta := req.Amount
			if req.Direction == DirectionDebit {
				delta = delta.Neg()
			}
			newBalance, err = s.balances.Adjust(ctx, tx, req.UserID, delta)
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", req.Type, err)
		}

		description := req.Reason
		if description == "" {
			description = fmt.Sprintf("Admin %s (%s)", req.Type, req.Direction)
		}

		rec, err := s.txns.Record(ctx, tx, transactions.Entry{
			UserID:        req.UserID,
			Type:          req.Type,
			Amount:        req.Amount,
			BalanceBefore: acc.Balance,
			BalanceAfter:  newBalance,
			Status:        transactions.StatusCompleted,
			Description:   description,
		})
		if err != nil {
			return fmt.Errorf("record %s transaction: %w", req.Type, err)
		}

		err = s.activity.Insert(ctx, tx, activity.Entry{
			UserID:      req.UserID,
			Action:      activity.ActionAdminAdjustment,
			Category:    activity.CategoryFinancial,
			Description: description,
			Metadata: map[string]any{
				"type":           string(req.Type),
				"direction":      string(req.Direction),
				"amount":         req.Amount.StringFixed(MoneyPlaces),
				"transaction_id": rec.ID,
			},
		})
		if err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}

		out = Adjustment{
			TransactionID:  rec.ID,
			TransactionRef: rec.Reference,
			UserID:         req.UserID,
			Type:           req.Type,
			Direction:      req.Direction,
			Amount:         req.Amount,
			BalanceBefore:  acc.Balance,
			NewBalance:     newBalance,
		}

		return nil
	})
	if err != nil {
		return Adjustment{}, s.fail(ctx, op, fmt.Errorf("adjust balance: %w", classify(err)))
	}

	s.metrics.ObserveDuration(op, s.now().Sub(started))
	s.metrics.BalanceAdjusted(string(out.Type))

	zerolog.Ctx(ctx).Info().
		Uint64("user_id", out.UserID).
		Str("type", string(out.Type)).
		Str("direction", string(out.Direction)).
		Str("amount", out.Amount.StringFixed(MoneyPlaces)).
		Msg("balance adjusted")

	s.publish(ctx, events.Event{
		Type:          events.TypeBalanceAdjusted,
		UserID:        out.UserID,
		TransactionID: out.TransactionID,
		Amount:        out.Amount,
		Balance:       &out.NewBalance,
	})

	return out, nil
}
