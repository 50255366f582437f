package natsconn

import (
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

// fakeJetStream implements just the stream management calls EnsureStream uses.
type fakeJetStream struct {
	nats.JetStreamContext
	stream  *nats.StreamConfig
	infoErr error
	added   *nats.StreamConfig
	updated *nats.StreamConfig
}

func (f *fakeJetStream) StreamInfo(string, ...nats.JSOpt) (*nats.StreamInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	if f.stream == nil {
		return nil, nats.ErrStreamNotFound
	}
	return &nats.StreamInfo{Config: *f.stream}, nil
}

func (f *fakeJetStream) AddStream(cfg *nats.StreamConfig, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	f.added = cfg
	return &nats.StreamInfo{Config: *cfg}, nil
}

func (f *fakeJetStream) UpdateStream(cfg *nats.StreamConfig, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	f.updated = cfg
	return &nats.StreamInfo{Config: *cfg}, nil
}

func TestEnsureStream_CreatesProgressStream(t *testing.T) {
	js := &fakeJetStream{}
	if err := EnsureStream(js, "PROGRESS", "progress.>", 72*time.Hour); err != nil {
		t.Fatalf("EnsureStream: %v", err)
	}
	if js.added == nil {
		t.Fatal("expected stream to be created")
	}
	if js.added.Name != "PROGRESS" || len(js.added.Subjects) != 1 || js.added.Subjects[0] != "progress.>" {
		t.Fatalf("created %+v", js.added)
	}
	if js.added.MaxAge != 72*time.Hour || js.added.Storage != nats.FileStorage {
		t.Fatalf("retention %+v", js.added)
	}
}

func TestEnsureStream_ExistingSubjectIsNoop(t *testing.T) {
	js := &fakeJetStream{stream: &nats.StreamConfig{Name: "PROGRESS", Subjects: []string{"progress.>"}}}
	if err := EnsureStream(js, "PROGRESS", "progress.>", time.Hour); err != nil {
		t.Fatalf("EnsureStream: %v", err)
	}
	if js.added != nil || js.updated != nil {
		t.Fatalf("expected no changes, added=%v updated=%v", js.added, js.updated)
	}
}

func TestEnsureStream_WidensSubjects(t *testing.T) {
	js := &fakeJetStream{stream: &nats.StreamConfig{Name: "PROGRESS", Subjects: []string{"progress.submitted"}}}
	if err := EnsureStream(js, "PROGRESS", "progress.>", time.Hour); err != nil {
		t.Fatalf("EnsureStream: %v", err)
	}
	if js.updated == nil || len(js.updated.Subjects) != 2 || js.updated.Subjects[1] != "progress.>" {
		t.Fatalf("updated %+v", js.updated)
	}
}

func TestEnsureStream_PropagatesLookupError(t *testing.T) {
	boom := errors.New("jetstream not enabled")
	js := &fakeJetStream{infoErr: boom}
	if err := EnsureStream(js, "PROGRESS", "progress.>", time.Hour); !errors.Is(err, boom) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if js.added != nil {
		t.Fatal("must not create the stream on an unknown error")
	}
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("NATS_MAX_RECONNECTS", "-3")
	if got := envInt("NATS_MAX_RECONNECTS", 5); got != 5 {
		t.Fatalf("negative reconnects: got %d", got)
	}
	t.Setenv("NATS_MAX_RECONNECTS", "9")
	if got := envInt("NATS_MAX_RECONNECTS", 5); got != 9 {
		t.Fatalf("reconnects: got %d", got)
	}
	t.Setenv("NATS_RECONNECT_WAIT", "soon")
	if got := envDuration("NATS_RECONNECT_WAIT", 2*time.Second); got != 2*time.Second {
		t.Fatalf("bad wait: got %s", got)
	}
	t.Setenv("NATS_RECONNECT_WAIT", "250ms")
	if got := envDuration("NATS_RECONNECT_WAIT", 2*time.Second); got != 250*time.Millisecond {
		t.Fatalf("wait: got %s", got)
	}
}

func TestConnect_UnreachableServerFailsFast(t *testing.T) {
	_, err := Connect(Options{
		URL:           "nats://127.0.0.1:19999",
		Name:          "progress-test",
		MaxReconnects: 1,
		ReconnectWait: 10 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error connecting to an unreachable server")
	}
}
