// Package completion decides whether a viewer has satisfied an activity's
// minimum-view requirement and signals the host to re-evaluate it.
package completion

import (
	"context"

	"github.com/example/mediawatch/internal/platform/events"
)

// State is the outcome of the completion rule for one record.
// When Applies is false the host's default completion state stands.
type State struct {
	Applies  bool
	Complete bool
}

// Evaluate applies the minimum-view rule: required 0 disables it.
func Evaluate(required, percentage int) State {
	if required <= 0 {
		return State{}
	}
	return State{Applies: true, Complete: percentage >= required}
}

// Signal asks the host to re-evaluate completion for one viewer.
type Signal struct {
	ModuleID   int64
	UserID     string
	Percentage int
	Required   int
	State      State
}

// Notifier delivers completion signals. Implementations must not block
// the caller on a slow or unavailable transport.
type Notifier interface {
	Notify(ctx context.Context, s Signal)
}

// NopNotifier drops every signal.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Signal) {}

// PublisherNotifier publishes signals to JetStream.
type PublisherNotifier struct {
	Publisher *events.Publisher
}

func (n PublisherNotifier) Notify(_ context.Context, s Signal) {
	n.Publisher.Publish(events.SubjectCompletionReevaluate, "completion_reevaluate", s.UserID, map[string]any{
		"module_id":  s.ModuleID,
		"percentage": s.Percentage,
		"required":   s.Required,
		"applies":    s.State.Applies,
		"completed":  s.State.Complete,
	})
}
