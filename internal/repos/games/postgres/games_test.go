package games

import (
	"errors"
	"testing"

	"github.com/fastprodman/wagerledger/internal/infra/pgtestutil"
	"github.com/fastprodman/wagerledger/internal/repos/games"
)

func TestGames_GetActive(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedGame(t, db, 1, "1.00", "50.00", true)
	pgtestutil.SeedGame(t, db, 99, "1.00", "10.00", false)

	repo := New(db)

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	g, err := repo.GetActive(t.Context(), tx, 1)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if g.MinBet.String() != "1" || g.MaxBet.String() != "50" || g.Name != "game1" {
		t.Fatalf("unexpected game: %+v", g)
	}

	for _, id := range []uint64{99, 12345} {
		_, err = repo.GetActive(t.Context(), tx, id)
		if !errors.Is(err, games.ErrGameNotFound) {
			t.Fatalf("game %d: want ErrGameNotFound, got %v", id, err)
		}
	}
}
