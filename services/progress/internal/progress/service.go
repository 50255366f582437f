// Package progress applies viewer progress reports to the store and keeps
// completion state in step with them.
package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/mediawatch/services/progress/internal/completion"
	"github.com/example/mediawatch/services/progress/internal/store"
)

var (
	ErrOutOfRange       = store.ErrOutOfRange
	ErrActivityNotFound = store.ErrActivityNotFound
	ErrInvalidUser      = errors.New("user id is required")
	ErrInvalidModule    = errors.New("module id must be positive")
)

// Result is what a caller learns after a submission or lookup.
type Result struct {
	Record     store.ProgressRecord
	Required   int
	Completion completion.State
	// Changed is true when the stored percentage was inserted or raised.
	Changed bool
}

type Service struct {
	Progress   store.ProgressRepository
	Activities store.ActivityRepository
	Notifier   completion.Notifier
	Log        *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Submit merges pct into the stored record for (moduleID, userID). The stored
// value only ever grows; a completion re-evaluation is signalled when it does.
func (s *Service) Submit(ctx context.Context, moduleID int64, userID string, pct int) (Result, error) {
	userID = strings.TrimSpace(userID)
	if err := validate(moduleID, userID); err != nil {
		return Result{}, err
	}
	if !store.ValidPercentage(pct) {
		return Result{}, ErrOutOfRange
	}

	act, err := s.Activities.Get(ctx, moduleID)
	if err != nil {
		return Result{}, err
	}

	rec, changed, err := s.Progress.Merge(ctx, store.ProgressRecord{ActivityID: moduleID, UserID: userID, Percentage: pct})
	if err != nil {
		return Result{}, fmt.Errorf("submit progress: %w", err)
	}

	res := Result{
		Record:     rec,
		Required:   act.CompletionMinView,
		Completion: completion.Evaluate(act.CompletionMinView, rec.Percentage),
		Changed:    changed,
	}
	if changed {
		s.logger().Debug("progress raised",
			zap.Int64("module_id", moduleID),
			zap.String("user_id", userID),
			zap.Int("percentage", rec.Percentage),
		)
		if s.Notifier != nil {
			s.Notifier.Notify(ctx, completion.Signal{
				ModuleID:   moduleID,
				UserID:     userID,
				Percentage: rec.Percentage,
				Required:   act.CompletionMinView,
				State:      res.Completion,
			})
		}
	}
	return res, nil
}

// Get returns the stored record, or a zero percentage when none exists.
func (s *Service) Get(ctx context.Context, moduleID int64, userID string) (Result, error) {
	userID = strings.TrimSpace(userID)
	if err := validate(moduleID, userID); err != nil {
		return Result{}, err
	}
	act, err := s.Activities.Get(ctx, moduleID)
	if err != nil {
		return Result{}, err
	}
	rec, _, err := s.Progress.Get(ctx, moduleID, userID)
	if err != nil {
		return Result{}, fmt.Errorf("get progress: %w", err)
	}
	return Result{
		Record:     rec,
		Required:   act.CompletionMinView,
		Completion: completion.Evaluate(act.CompletionMinView, rec.Percentage),
	}, nil
}

// Activity resolves an activity instance.
func (s *Service) Activity(ctx context.Context, moduleID int64) (store.Activity, error) {
	if moduleID <= 0 {
		return store.Activity{}, ErrInvalidModule
	}
	return s.Activities.Get(ctx, moduleID)
}

func validate(moduleID int64, userID string) error {
	if moduleID <= 0 {
		return ErrInvalidModule
	}
	if userID == "" {
		return ErrInvalidUser
	}
	return nil
}
