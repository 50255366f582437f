package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrOutOfRange       = errors.New("percentage out of range")
)

// ProgressRecord is the best-known watch percentage of one viewer on one activity.
type ProgressRecord struct {
	ActivityID int64
	UserID     string
	Percentage int
	UpdatedAt  time.Time
}

// Activity is a video activity instance as configured by the host platform.
// CompletionMinView is the required percentage; 0 disables the rule.
type Activity struct {
	ID                int64     `yaml:"id"`
	Name              string    `yaml:"name"`
	MediaURL          string    `yaml:"media_url"`
	CompletionMinView int       `yaml:"completion_min_view"`
	CreatedAt         time.Time `yaml:"-"`
	UpdatedAt         time.Time `yaml:"-"`
}

// ProgressRepository persists progress records.
type ProgressRepository interface {
	// Merge stores max(existing, rec.Percentage) for the record's key and
	// returns the committed record. changed is true when the row was
	// inserted or raised; the timestamp only moves in that case.
	Merge(ctx context.Context, rec ProgressRecord) (committed ProgressRecord, changed bool, err error)
	// Get returns the stored record; ok is false when none exists.
	Get(ctx context.Context, activityID int64, userID string) (rec ProgressRecord, ok bool, err error)
}

// ActivityRepository resolves activity instances.
type ActivityRepository interface {
	// Get returns ErrActivityNotFound for unknown ids.
	Get(ctx context.Context, id int64) (Activity, error)
	// Put creates or replaces an activity. Used for seeding.
	Put(ctx context.Context, a Activity) error
}

// ValidPercentage reports whether p fits the stored 0..100 range.
func ValidPercentage(p int) bool { return p >= 0 && p <= 100 }
