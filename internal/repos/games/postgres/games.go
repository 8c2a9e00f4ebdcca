package games

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/repos/games"
)

var _ games.Games = (*gamesRepo)(nil)

type gamesRepo struct{ db *sql.DB }

func New(db *sql.DB) *gamesRepo {
	return &gamesRepo{db: db}
}

func (r *gamesRepo) GetActive(ctx context.Context, tx *sql.Tx, gameID uint64) (games.Game, error) {
	var g games.Game

	err := tx.QueryRowContext(ctx, `
		SELECT id, name, min_bet, max_bet
		FROM games
		WHERE id = $1
		  AND is_active = TRUE
	`, gameID).Scan(&g.ID, &g.Name, &g.MinBet, &g.MaxBet)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return games.Game{}, games.ErrGameNotFound
		}

		return games.Game{}, fmt.Errorf("get active game: %w", err)
	}

	return g, nil
}
