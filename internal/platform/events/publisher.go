// Package events provides a fire-and-forget NATS JetStream publisher for
// domain signals (progress submissions, completion re-evaluation, playback).
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects published by mediawatch services. All live under the PROGRESS stream.
const (
	StreamProgress = "PROGRESS"

	SubjectProgressSubmitted    = "progress.submitted"
	SubjectCompletionReevaluate = "progress.completion.reevaluate"
	SubjectPlaybackStarted      = "progress.playback.started"
)

// Event is the canonical envelope for signals.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	UserID     string         `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher publishes events to JetStream.
// A nil pointer and a Publisher without a JetStream context are no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// New creates a Publisher. Pass js=nil for a no-op stub.
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{js: js, log: log}
}

// Enabled reports whether events actually leave the process.
func (p *Publisher) Enabled() bool { return p != nil && p.js != nil }

// Publish sends an event asynchronously. Failures are logged as warnings
// and never surface to the caller.
func (p *Publisher) Publish(subject, eventName, userID string, props map[string]any) {
	if !p.Enabled() {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
