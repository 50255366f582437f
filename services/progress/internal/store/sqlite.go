package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (or creates) a SQLite database and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time keeps the guarded upsert serialized per key.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	if err := EnsureSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// SQLiteProgressRepository stores progress in SQLite for single-node deployments.
type SQLiteProgressRepository struct {
	db *sql.DB
}

func NewSQLiteProgressRepository(db *sql.DB) *SQLiteProgressRepository {
	return &SQLiteProgressRepository{db: db}
}

func (r *SQLiteProgressRepository) Merge(ctx context.Context, rec ProgressRecord) (ProgressRecord, bool, error) {
	if !ValidPercentage(rec.Percentage) {
		return ProgressRecord{}, false, ErrOutOfRange
	}
	q := `
INSERT INTO media_progress (activity_id, user_id, percentage, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(activity_id, user_id) DO UPDATE SET
	percentage = excluded.percentage,
	updated_at = excluded.updated_at
WHERE media_progress.percentage < excluded.percentage
RETURNING percentage, updated_at`

	out := ProgressRecord{ActivityID: rec.ActivityID, UserID: rec.UserID}
	var updatedMs int64
	err := r.db.QueryRowContext(ctx, q, rec.ActivityID, rec.UserID, rec.Percentage, time.Now().UTC().UnixMilli()).
		Scan(&out.Percentage, &updatedMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			cur, _, err := r.Get(ctx, rec.ActivityID, rec.UserID)
			return cur, false, err
		}
		return ProgressRecord{}, false, fmt.Errorf("merge progress: %w", err)
	}
	out.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return out, true, nil
}

func (r *SQLiteProgressRepository) Get(ctx context.Context, activityID int64, userID string) (ProgressRecord, bool, error) {
	out := ProgressRecord{ActivityID: activityID, UserID: userID}
	var updatedMs int64
	err := r.db.QueryRowContext(ctx,
		`SELECT percentage, updated_at FROM media_progress WHERE activity_id = ? AND user_id = ?`,
		activityID, userID,
	).Scan(&out.Percentage, &updatedMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return out, false, nil
		}
		return ProgressRecord{}, false, fmt.Errorf("get progress: %w", err)
	}
	out.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return out, true, nil
}

// SQLiteActivityRepository reads activity instances from SQLite.
type SQLiteActivityRepository struct {
	db *sql.DB
}

func NewSQLiteActivityRepository(db *sql.DB) *SQLiteActivityRepository {
	return &SQLiteActivityRepository{db: db}
}

func (r *SQLiteActivityRepository) Get(ctx context.Context, id int64) (Activity, error) {
	var a Activity
	var createdMs, updatedMs int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, media_url, completion_min_view, created_at, updated_at FROM activities WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.MediaURL, &a.CompletionMinView, &createdMs, &updatedMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Activity{}, ErrActivityNotFound
		}
		return Activity{}, fmt.Errorf("get activity: %w", err)
	}
	a.CreatedAt = time.UnixMilli(createdMs).UTC()
	a.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return a, nil
}

func (r *SQLiteActivityRepository) Put(ctx context.Context, a Activity) error {
	now := time.Now().UTC().UnixMilli()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO activities (id, name, media_url, completion_min_view, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	media_url = excluded.media_url,
	completion_min_view = excluded.completion_min_view,
	updated_at = excluded.updated_at`,
		a.ID, a.Name, a.MediaURL, a.CompletionMinView, now, now)
	if err != nil {
		return fmt.Errorf("put activity: %w", err)
	}
	return nil
}
