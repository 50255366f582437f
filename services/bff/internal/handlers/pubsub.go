package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

var ErrAsyncPublishDisabled = errors.New("async publish is disabled")

// EventPublisher publishes write events that the progress service applies
// asynchronously. Publish waits for the JetStream ack so an accepted
// request is durable.
type EventPublisher struct {
	js          nats.JetStreamContext
	asyncWrites bool
}

func NewEventPublisher(js nats.JetStreamContext, asyncWrites bool) *EventPublisher {
	return &EventPublisher{js: js, asyncWrites: asyncWrites}
}

func (p *EventPublisher) Enabled() bool {
	return p != nil && p.js != nil && p.asyncWrites
}

func (p *EventPublisher) PublishJSON(subject string, payload map[string]any) (string, error) {
	if !p.Enabled() {
		return "", ErrAsyncPublishDisabled
	}

	eventID := uuid.NewString()
	payload["event_id"] = eventID
	if _, ok := payload["created_at"]; !ok {
		payload["created_at"] = time.Now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if _, err := p.js.Publish(subject, body, nats.MsgId(eventID)); err != nil {
		return "", err
	}
	return eventID, nil
}
