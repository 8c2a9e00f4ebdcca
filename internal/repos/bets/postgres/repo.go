package bets

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

var _ bets.Bets = (*betsRepo)(nil)

type betsRepo struct{ db *sql.DB }

func New(db *sql.DB) *betsRepo {
	return &betsRepo{db: db}
}

const betColumns = `
	id, user_id, game_id, transaction_id, win_transaction_id, bet_amount,
	outcome, win_amount, game_data, game_result, placed_at, result_at
`

type scanner interface {
	Scan(dest ...any) error
}

func scanBet(s scanner) (bets.Bet, error) {
	var (
		b          bets.Bet
		outcome    string
		winTxID    sql.NullInt64
		gameData   []byte
		gameResult []byte
		resultAt   sql.NullTime
	)

	err := s.Scan(
		&b.ID,
		&b.UserID,
		&b.GameID,
		&b.TransactionID,
		&winTxID,
		&b.BetAmount,
		&outcome,
		&b.WinAmount,
		&gameData,
		&gameResult,
		&b.PlacedAt,
		&resultAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bets.Bet{}, bets.ErrBetNotFound
		}

		return bets.Bet{}, err
	}

	b.Outcome = bets.Outcome(outcome)
	if winTxID.Valid {
		id := winTxID.Int64
		b.WinTransactionID = &id
	}
	if len(gameData) > 0 {
		b.GameData = json.RawMessage(gameData)
	}
	if len(gameResult) > 0 {
		b.GameResult = json.RawMessage(gameResult)
	}
	if resultAt.Valid {
		at := resultAt.Time.UTC()
		b.ResultAt = &at
	}
	b.PlacedAt = b.PlacedAt.UTC()

	return b, nil
}

// jsonParam turns an opaque payload into a JSONB parameter; empty
// payloads are stored as NULL.
func jsonParam(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	return []byte(raw)
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: *v, Valid: true}
}
