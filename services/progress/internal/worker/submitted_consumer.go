package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/mediawatch/internal/platform/events"
	"github.com/example/mediawatch/services/progress/internal/progress"
)

// SubmittedEvent is the payload published by the BFF for an accepted report.
type SubmittedEvent struct {
	EventID    string `json:"event_id"`
	ModuleID   int64  `json:"module_id"`
	UserID     string `json:"user_id"`
	Percentage int    `json:"percentage"`
	CreatedAt  string `json:"created_at"`
}

// Submitter is the slice of progress.Service the consumer needs.
type Submitter interface {
	Submit(ctx context.Context, moduleID int64, userID string, pct int) (progress.Result, error)
}

type Options struct {
	Durable       string
	BatchSize     int
	BatchInterval time.Duration
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeNak
	outcomeTerm
)

// StartSubmittedConsumer pulls progress.submitted events and merges each one
// through svc. Redelivered duplicates are harmless: the merge keeps the max.
func StartSubmittedConsumer(ctx context.Context, nc *nats.Conn, svc Submitter, opts Options, log *zap.Logger) error {
	js, err := nc.JetStream()
	if err != nil {
		return err
	}
	if opts.Durable == "" {
		opts.Durable = "progress_submitted"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchInterval <= 0 {
		opts.BatchInterval = 2 * time.Second
	}

	sub, err := js.PullSubscribe(events.SubjectProgressSubmitted, opts.Durable)
	if err != nil {
		return err
	}

	go func() {
		defer func() { _ = sub.Unsubscribe() }()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msgs, err := sub.Fetch(opts.BatchSize, nats.MaxWait(opts.BatchInterval))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				log.Warn("submitted_consumer: fetch error", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}

			for _, m := range msgs {
				var ackErr error
				switch handle(ctx, svc, m.Data, log) {
				case outcomeAck:
					ackErr = m.Ack()
				case outcomeNak:
					ackErr = m.Nak()
				case outcomeTerm:
					ackErr = m.Term()
				}
				if ackErr != nil {
					log.Warn("submitted_consumer: ack error", zap.Error(ackErr))
				}
			}
		}
	}()
	return nil
}

func handle(ctx context.Context, svc Submitter, data []byte, log *zap.Logger) outcome {
	var ev SubmittedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Warn("submitted_consumer: invalid json", zap.Error(err))
		return outcomeTerm
	}
	if strings.TrimSpace(ev.UserID) == "" || ev.ModuleID <= 0 {
		log.Warn("submitted_consumer: incomplete event", zap.String("event_id", ev.EventID))
		return outcomeTerm
	}

	_, err := svc.Submit(ctx, ev.ModuleID, ev.UserID, ev.Percentage)
	switch {
	case err == nil:
		return outcomeAck
	case errors.Is(err, progress.ErrOutOfRange),
		errors.Is(err, progress.ErrActivityNotFound),
		errors.Is(err, progress.ErrInvalidUser),
		errors.Is(err, progress.ErrInvalidModule):
		log.Warn("submitted_consumer: rejected event",
			zap.String("event_id", ev.EventID),
			zap.Int64("module_id", ev.ModuleID),
			zap.Error(err),
		)
		return outcomeTerm
	default:
		log.Error("submitted_consumer: submit failed", zap.String("event_id", ev.EventID), zap.Error(err))
		return outcomeNak
	}
}
