package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProgressRepository is the production Postgres-backed implementation.
type PostgresProgressRepository struct {
	db *pgxpool.Pool
}

func NewPostgresProgressRepository(db *pgxpool.Pool) *PostgresProgressRepository {
	return &PostgresProgressRepository{db: db}
}

// Merge relies on the conflicting row lock taken by ON CONFLICT DO UPDATE:
// concurrent submissions for one key are applied one after the other and
// the WHERE guard sees the committed value.
func (r *PostgresProgressRepository) Merge(ctx context.Context, rec ProgressRecord) (ProgressRecord, bool, error) {
	if !ValidPercentage(rec.Percentage) {
		return ProgressRecord{}, false, ErrOutOfRange
	}
	q := `
INSERT INTO media_progress (activity_id, user_id, percentage, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (activity_id, user_id)
DO UPDATE SET
  percentage = EXCLUDED.percentage,
  updated_at = EXCLUDED.updated_at
WHERE media_progress.percentage < EXCLUDED.percentage
RETURNING percentage, updated_at`

	out := ProgressRecord{ActivityID: rec.ActivityID, UserID: rec.UserID}
	err := r.db.QueryRow(ctx, q, rec.ActivityID, rec.UserID, rec.Percentage, time.Now().UTC()).
		Scan(&out.Percentage, &out.UpdatedAt)
	if err != nil {
		// WHERE clause blocked the update; the stored value is already >= rec.
		if errors.Is(err, pgx.ErrNoRows) {
			cur, _, err := r.Get(ctx, rec.ActivityID, rec.UserID)
			return cur, false, err
		}
		return ProgressRecord{}, false, fmt.Errorf("merge progress: %w", err)
	}
	return out, true, nil
}

func (r *PostgresProgressRepository) Get(ctx context.Context, activityID int64, userID string) (ProgressRecord, bool, error) {
	q := `SELECT percentage, updated_at FROM media_progress WHERE activity_id=$1 AND user_id=$2`
	out := ProgressRecord{ActivityID: activityID, UserID: userID}
	err := r.db.QueryRow(ctx, q, activityID, userID).Scan(&out.Percentage, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return out, false, nil
		}
		return ProgressRecord{}, false, fmt.Errorf("get progress: %w", err)
	}
	return out, true, nil
}

// PostgresActivityRepository reads activity instances from Postgres.
type PostgresActivityRepository struct {
	db *pgxpool.Pool
}

func NewPostgresActivityRepository(db *pgxpool.Pool) *PostgresActivityRepository {
	return &PostgresActivityRepository{db: db}
}

func (r *PostgresActivityRepository) Get(ctx context.Context, id int64) (Activity, error) {
	q := `SELECT id, name, media_url, completion_min_view, created_at, updated_at FROM activities WHERE id=$1`
	var a Activity
	err := r.db.QueryRow(ctx, q, id).Scan(&a.ID, &a.Name, &a.MediaURL, &a.CompletionMinView, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, ErrActivityNotFound
		}
		return Activity{}, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

func (r *PostgresActivityRepository) Put(ctx context.Context, a Activity) error {
	q := `
INSERT INTO activities (id, name, media_url, completion_min_view, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  media_url = EXCLUDED.media_url,
  completion_min_view = EXCLUDED.completion_min_view,
  updated_at = now()`
	if _, err := r.db.Exec(ctx, q, a.ID, a.Name, a.MediaURL, a.CompletionMinView); err != nil {
		return fmt.Errorf("put activity: %w", err)
	}
	return nil
}
