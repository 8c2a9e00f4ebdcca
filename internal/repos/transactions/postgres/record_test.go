package transactions

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerledger/internal/infra/pgtestutil"
	"github.com/fastprodman/wagerledger/internal/repos/transactions"
)

func betEntry(userID uint64) transactions.Entry {
	return transactions.Entry{
		UserID:        userID,
		Type:          transactions.TypeBet,
		Amount:        decimal.NewFromInt(20),
		BalanceBefore: decimal.NewFromInt(100),
		BalanceAfter:  decimal.NewFromInt(80),
		Status:        transactions.StatusCompleted,
		Description:   "Bet placed on game1",
	}
}

func TestTransactions_Record(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    func(t *testing.T, db *sql.DB)
		entry   transactions.Entry
		ref     string
		wantErr error
	}{
		{
			name:  "ok_insert",
			seed:  func(t *testing.T, db *sql.DB) { pgtestutil.SeedAccount(t, db, 1, "100") },
			entry: betEntry(1),
		},
		{
			name: "duplicate_reference",
			seed: func(t *testing.T, db *sql.DB) {
				pgtestutil.SeedAccount(t, db, 2, "100")
				_, err := db.Exec(`
					INSERT INTO transactions
					(reference, user_id, type, amount, balance_before, balance_after, status)
					VALUES ('01J00000000000000000000DUP', 2, 'deposit', 1, 0, 1, 'completed')
				`)
				if err != nil {
					t.Fatalf("seed tx: %v", err)
				}
			},
			entry:   betEntry(2),
			ref:     "01J00000000000000000000DUP",
			wantErr: ErrDuplicateReference,
		},
		{
			name:    "user_not_exist_fk_violation",
			seed:    func(*testing.T, *sql.DB) {},
			entry:   betEntry(999),
			wantErr: &pgconn.PgError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			tt.seed(t, db)

			repo := New(db)
			if tt.ref != "" {
				repo.newRef = func() string { return tt.ref }
			}

			tx, err := db.BeginTx(context.Background(), nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			rec, err := repo.Record(t.Context(), tx, tt.entry)

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if rec.ID == 0 || len(rec.Reference) != 26 {
					t.Fatalf("bad recorded id/ref: %+v", rec)
				}
				return
			}

			var pgErr *pgconn.PgError
			if errors.As(tt.wantErr, &pgErr) {
				if !errors.As(err, &pgErr) {
					t.Fatalf("expected pg error, got %v", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("unexpected error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactions_Record_RejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, "100")

	repo := New(db)

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	e := betEntry(1)
	e.Amount = decimal.Zero

	_, err = repo.Record(t.Context(), tx, e)
	if err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestTransactions_ListByUser(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 5, "100")
	pgtestutil.SeedAccount(t, db, 6, "100")

	repo := New(db)

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}

	var last transactions.Recorded
	for i := range 3 {
		e := betEntry(5)
		e.Amount = decimal.NewFromInt(int64(i + 1))
		last, err = repo.Record(t.Context(), tx, e)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	_, err = repo.Record(t.Context(), tx, betEntry(6))
	if err != nil {
		t.Fatalf("record other user: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := repo.ListByUser(t.Context(), 5, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].ID != last.ID || got[0].Reference != last.Reference {
		t.Fatalf("newest first violated: %+v", got[0])
	}
	if got[0].Type != transactions.TypeBet || got[0].Status != transactions.StatusCompleted {
		t.Fatalf("enum mapping: %+v", got[0])
	}
	if got[0].BalanceBefore.String() != "100" || got[0].BalanceAfter.String() != "80" {
		t.Fatalf("snapshot mismatch: %+v", got[0])
	}

	none, err := repo.ListByUser(t.Context(), 404, 0)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("want empty, got %d", len(none))
	}
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	cases := map[int]int{0: DefaultListLimit, -1: DefaultListLimit, 10: 10, 1000: MaxListLimit}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Fatalf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNewReference_Monotonic(t *testing.T) {
	t.Parallel()

	prev := NewReference()
	for range 100 {
		next := NewReference()
		if next <= prev {
			t.Fatalf("references not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}
