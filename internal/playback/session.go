// Package playback drives a coverage.Tracker from player notifications and
// ships the resulting reports without ever blocking the sampling path.
package playback

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/mediawatch/internal/coverage"
)

type EventKind int

const (
	TimeUpdate EventKind = iota + 1
	Ended
)

// Event is one notification from the embedded player.
type Event struct {
	Kind        EventKind
	CurrentTime float64
	Duration    float64
}

// Report is the outbound progress message for one module.
type Report struct {
	ModuleID   int64
	Percentage int
}

// Reporter delivers a report to the progress backend.
type Reporter interface {
	Report(ctx context.Context, r Report) error
}

type Options struct {
	ModuleID      int64
	Reporter      Reporter
	Logger        *zap.Logger
	ReportTimeout time.Duration
	// OnProgress, if set, receives every computed percentage.
	OnProgress func(pct int)
}

// Session tracks one viewing of one module. Events must be delivered
// serially; reports run in their own goroutines.
type Session struct {
	moduleID   int64
	tracker    *coverage.Tracker
	reporter   Reporter
	log        *zap.Logger
	timeout    time.Duration
	onProgress func(int)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSession(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ReportTimeout <= 0 {
		opts.ReportTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		moduleID:   opts.ModuleID,
		tracker:    coverage.NewTracker(),
		reporter:   opts.Reporter,
		log:        opts.Logger,
		timeout:    opts.ReportTimeout,
		onProgress: opts.OnProgress,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handle processes a single player event and returns the tracker decision.
func (s *Session) Handle(ev Event) coverage.Decision {
	var d coverage.Decision
	switch ev.Kind {
	case TimeUpdate:
		d = s.tracker.OnSample(ev.CurrentTime, ev.Duration)
	case Ended:
		d = s.tracker.OnEnded()
	default:
		return coverage.Decision{Percentage: s.tracker.Percentage()}
	}
	if s.onProgress != nil {
		s.onProgress(d.Percentage)
	}
	if d.Report {
		s.dispatch(Report{ModuleID: s.moduleID, Percentage: d.Percentage})
	}
	return d
}

// Run consumes events until the channel closes or ctx is done. A nil
// channel means the player exposes no notifications: tracking is disabled.
func (s *Session) Run(ctx context.Context, events <-chan Event) {
	if events == nil {
		s.log.Warn("player exposes no time notifications, progress tracking disabled",
			zap.Int64("module_id", s.moduleID))
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Handle(ev)
		}
	}
}

func (s *Session) dispatch(r Report) {
	if s.reporter == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
		if err := s.reporter.Report(ctx, r); err != nil {
			s.log.Warn("progress report failed",
				zap.Int64("module_id", r.ModuleID),
				zap.Int("percentage", r.Percentage),
				zap.Error(err))
		}
	}()
}

// Tracker exposes the underlying tracker for inspection.
func (s *Session) Tracker() *coverage.Tracker { return s.tracker }

// Wait blocks until every dispatched report has finished.
func (s *Session) Wait() { s.wg.Wait() }

// Close abandons in-flight reports and waits for their goroutines to exit.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}
