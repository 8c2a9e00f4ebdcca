package activity

import (
	"context"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/repos/activity"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListByUser returns the newest audit lines first.
func (r *activityRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]activity.Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, category, description, metadata, created_at
		FROM user_activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := make([]activity.Record, 0)

	for rows.Next() {
		var (
			rec              activity.Record
			action, category string
			metadata         []byte
		)

		err = rows.Scan(&rec.ID, &rec.UserID, &action, &category, &rec.Description, &metadata, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}

		rec.Action = activity.Action(action)
		rec.Category = activity.Category(category)
		if len(metadata) > 0 {
			rec.Metadata = metadata
		}

		out = append(out, rec)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}

	return out, nil
}
