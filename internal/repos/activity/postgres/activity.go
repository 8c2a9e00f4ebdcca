package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/repos/activity"
)

var _ activity.Log = (*activityRepo)(nil)

type activityRepo struct{ db *sql.DB }

func New(db *sql.DB) *activityRepo {
	return &activityRepo{db: db}
}

func (r *activityRepo) Insert(ctx context.Context, tx *sql.Tx, e activity.Entry) error {
	var metadata any

	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}

		metadata = raw
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_activity_logs
		(user_id, action, category, description, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, e.UserID, string(e.Action), string(e.Category), e.Description, metadata)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	return nil
}
