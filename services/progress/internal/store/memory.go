package store

import (
	"context"
	"sync"
	"time"
)

type progressKey struct {
	activityID int64
	userID     string
}

// InMemoryProgressRepository is a development-only implementation.
// State is lost on restart and is not shared between instances.
type InMemoryProgressRepository struct {
	mu      sync.Mutex
	records map[progressKey]ProgressRecord
	now     func() time.Time
}

func NewInMemoryProgressRepository() *InMemoryProgressRepository {
	return &InMemoryProgressRepository{
		records: make(map[progressKey]ProgressRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemoryProgressRepository) Merge(_ context.Context, rec ProgressRecord) (ProgressRecord, bool, error) {
	if !ValidPercentage(rec.Percentage) {
		return ProgressRecord{}, false, ErrOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := progressKey{activityID: rec.ActivityID, userID: rec.UserID}
	cur, ok := s.records[k]
	if ok && cur.Percentage >= rec.Percentage {
		return cur, false, nil
	}
	next := ProgressRecord{
		ActivityID: rec.ActivityID,
		UserID:     rec.UserID,
		Percentage: rec.Percentage,
		UpdatedAt:  s.now(),
	}
	s.records[k] = next
	return next, true, nil
}

func (s *InMemoryProgressRepository) Get(_ context.Context, activityID int64, userID string) (ProgressRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[progressKey{activityID: activityID, userID: userID}]
	if !ok {
		return ProgressRecord{ActivityID: activityID, UserID: userID}, false, nil
	}
	return rec, true, nil
}

// InMemoryActivityRepository is a development-only implementation.
type InMemoryActivityRepository struct {
	mu         sync.RWMutex
	activities map[int64]Activity
}

func NewInMemoryActivityRepository(seed ...Activity) *InMemoryActivityRepository {
	r := &InMemoryActivityRepository{activities: make(map[int64]Activity)}
	for _, a := range seed {
		r.activities[a.ID] = a
	}
	return r
}

func (r *InMemoryActivityRepository) Get(_ context.Context, id int64) (Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.activities[id]
	if !ok {
		return Activity{}, ErrActivityNotFound
	}
	return a, nil
}

func (r *InMemoryActivityRepository) Put(_ context.Context, a Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := r.activities[a.ID]; ok {
		a.CreatedAt = prev.CreatedAt
	} else {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	r.activities[a.ID] = a
	return nil
}
