package bets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerledger/internal/infra/pgtestutil"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

// seedBetTx creates the account, the game and a bet-type transaction and
// returns the transaction id.
func seedBetTx(t *testing.T, db *sql.DB, userID uint64) int64 {
	t.Helper()

	pgtestutil.SeedAccount(t, db, userID, "100")
	pgtestutil.SeedGame(t, db, 1, "1", "50", true)

	var id int64

	err := db.QueryRow(`
		INSERT INTO transactions
		(reference, user_id, type, amount, balance_before, balance_after, status)
		VALUES ('01HZZZZZZZZZZZZZZZZZZZZZZZ', $1, 'bet', 20, 100, 80, 'completed')
		RETURNING id
	`, userID).Scan(&id)
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	return id
}

func insertPending(t *testing.T, db *sql.DB, repo *betsRepo, userID uint64, txID int64, data json.RawMessage) int64 {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := repo.Insert(t.Context(), tx, bets.NewBet{
		UserID:        userID,
		GameID:        1,
		TransactionID: txID,
		BetAmount:     decimal.NewFromInt(20),
		GameData:      data,
	})
	if err != nil {
		t.Fatalf("insert bet: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	return id
}

func TestBets_InsertAndLock(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	txID := seedBetTx(t, db, 7)
	repo := New(db)

	betID := insertPending(t, db, repo, 7, txID, json.RawMessage(`{"seat":3}`))

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	b, err := repo.LockByID(t.Context(), tx, betID)
	if err != nil {
		t.Fatalf("lock bet: %v", err)
	}

	if b.Outcome != bets.OutcomePending || b.ResultAt != nil || b.WinTransactionID != nil {
		t.Fatalf("not pending: %+v", b)
	}
	if b.TransactionID != txID || b.UserID != 7 || b.GameID != 1 {
		t.Fatalf("links mismatch: %+v", b)
	}
	if b.BetAmount.String() != "20" || !b.WinAmount.IsZero() {
		t.Fatalf("amounts mismatch: %+v", b)
	}

	var data map[string]int
	if err := json.Unmarshal(b.GameData, &data); err != nil || data["seat"] != 3 {
		t.Fatalf("game data mismatch: %s (%v)", b.GameData, err)
	}

	_, err = repo.LockByID(t.Context(), tx, 404)
	if !errors.Is(err, bets.ErrBetNotFound) {
		t.Fatalf("want ErrBetNotFound, got %v", err)
	}
}

func TestBets_ResolveIsOneShot(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	txID := seedBetTx(t, db, 7)
	repo := New(db)

	betID := insertPending(t, db, repo, 7, txID, nil)

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	at, err := repo.Resolve(t.Context(), tx, betID, bets.Resolution{
		Outcome:    bets.OutcomeLose,
		WinAmount:  decimal.Zero,
		GameResult: json.RawMessage(`{"dealer":21}`),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if at.IsZero() {
		t.Fatal("result_at not returned")
	}

	_, err = repo.Resolve(t.Context(), tx, betID, bets.Resolution{
		Outcome:   bets.OutcomeWin,
		WinAmount: decimal.NewFromInt(40),
	})
	if !errors.Is(err, bets.ErrNotPending) {
		t.Fatalf("second resolve: want ErrNotPending, got %v", err)
	}

	_, err = repo.Resolve(t.Context(), tx, betID, bets.Resolution{Outcome: bets.OutcomePending})
	if err == nil {
		t.Fatal("resolve to pending: expected error")
	}

	b, err := repo.LockByID(t.Context(), tx, betID)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if b.Outcome != bets.OutcomeLose || b.ResultAt == nil || len(b.GameResult) == 0 {
		t.Fatalf("resolution not stored: %+v", b)
	}
}

func TestBets_ListByUser(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	txID := seedBetTx(t, db, 7)
	repo := New(db)

	betID := insertPending(t, db, repo, 7, txID, nil)

	got, err := repo.ListByUser(t.Context(), 7, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != betID {
		t.Fatalf("unexpected bets: %+v", got)
	}
	if got[0].GameData != nil {
		t.Fatalf("null game data should stay nil: %s", got[0].GameData)
	}

	none, err := repo.ListByUser(t.Context(), 8, 0)
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("want no bets, got %d", len(none))
	}
}
