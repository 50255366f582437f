package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/example/mediawatch/services/progress/internal/progress"
	"github.com/example/mediawatch/services/progress/internal/store"
)

type fakeSubmitter struct {
	err   error
	calls []SubmittedEvent
}

func (f *fakeSubmitter) Submit(_ context.Context, moduleID int64, userID string, pct int) (progress.Result, error) {
	f.calls = append(f.calls, SubmittedEvent{ModuleID: moduleID, UserID: userID, Percentage: pct})
	return progress.Result{}, f.err
}

func payload(t *testing.T, ev SubmittedEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleOutcomes(t *testing.T) {
	valid := SubmittedEvent{EventID: "e1", ModuleID: 3, UserID: "u", Percentage: 40}
	cases := []struct {
		name  string
		data  []byte
		err   error
		want  outcome
		calls int
	}{
		{"ok", payload(t, valid), nil, outcomeAck, 1},
		{"bad json", []byte("{"), nil, outcomeTerm, 0},
		{"missing user", payload(t, SubmittedEvent{ModuleID: 3, Percentage: 5}), nil, outcomeTerm, 0},
		{"missing module", payload(t, SubmittedEvent{UserID: "u", Percentage: 5}), nil, outcomeTerm, 0},
		{"out of range", payload(t, valid), progress.ErrOutOfRange, outcomeTerm, 1},
		{"unknown activity", payload(t, valid), progress.ErrActivityNotFound, outcomeTerm, 1},
		{"transient", payload(t, valid), errors.New("connection reset"), outcomeNak, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &fakeSubmitter{err: c.err}
			if got := handle(context.Background(), f, c.data, zap.NewNop()); got != c.want {
				t.Fatalf("outcome = %v, want %v", got, c.want)
			}
			if len(f.calls) != c.calls {
				t.Fatalf("calls = %d, want %d", len(f.calls), c.calls)
			}
		})
	}
}

func TestHandleRedeliveryIsIdempotent(t *testing.T) {
	svc := &progress.Service{
		Progress:   store.NewInMemoryProgressRepository(),
		Activities: store.NewInMemoryActivityRepository(store.Activity{ID: 3, MediaURL: "https://m/x"}),
	}
	data := payload(t, SubmittedEvent{EventID: "e1", ModuleID: 3, UserID: "u", Percentage: 70})
	for i := 0; i < 3; i++ {
		if got := handle(context.Background(), svc, data, zap.NewNop()); got != outcomeAck {
			t.Fatalf("delivery %d outcome = %v", i, got)
		}
	}
	res, _ := svc.Get(context.Background(), 3, "u")
	if res.Record.Percentage != 70 {
		t.Fatalf("percentage = %d, want 70", res.Record.Percentage)
	}
}
