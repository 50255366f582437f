package playback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"
)

type recordingReporter struct {
	mu      sync.Mutex
	reports []Report
	err     error
}

func (r *recordingReporter) Report(_ context.Context, rep Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
	return r.err
}

func (r *recordingReporter) percentages() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.reports))
	for _, rep := range r.reports {
		out = append(out, rep.Percentage)
	}
	return out
}

type blockingReporter struct {
	started chan struct{}
	done    chan error
}

func (b *blockingReporter) Report(ctx context.Context, _ Report) error {
	b.started <- struct{}{}
	<-ctx.Done()
	b.done <- ctx.Err()
	return ctx.Err()
}

func TestSession_DispatchesReports(t *testing.T) {
	rep := &recordingReporter{}
	s := NewSession(Options{ModuleID: 7, Reporter: rep})
	defer s.Close()

	for ct := 0.25; ct <= 10; ct += 0.25 {
		s.Handle(Event{Kind: TimeUpdate, CurrentTime: ct, Duration: 100})
	}
	s.Wait()

	got := rep.percentages()
	if len(got) != 2 {
		t.Fatalf("expected 2 reports, got %v", got)
	}
	seen := map[int]bool{got[0]: true, got[1]: true}
	if !seen[5] || !seen[10] {
		t.Fatalf("expected reports 5 and 10, got %v", got)
	}
	for _, r := range rep.reports {
		if r.ModuleID != 7 {
			t.Fatalf("expected module 7, got %d", r.ModuleID)
		}
	}
}

func TestSession_FailedReportIsNotRetried(t *testing.T) {
	rep := &recordingReporter{err: errors.New("network down")}
	s := NewSession(Options{ModuleID: 1, Reporter: rep})
	defer s.Close()

	for ct := 0.25; ct <= 5; ct += 0.25 {
		s.Handle(Event{Kind: TimeUpdate, CurrentTime: ct, Duration: 100})
	}
	s.Handle(Event{Kind: TimeUpdate, CurrentTime: 5, Duration: 100})
	s.Wait()

	if got := rep.percentages(); len(got) != 1 || got[0] != 5 {
		t.Fatalf("expected a single attempt at 5, got %v", got)
	}
}

func TestSession_SlowReporterDoesNotBlockSampling(t *testing.T) {
	rep := &blockingReporter{started: make(chan struct{}, 1), done: make(chan error, 1)}
	s := NewSession(Options{ModuleID: 1, Reporter: rep, ReportTimeout: time.Minute})

	s.Handle(Event{Kind: Ended})
	<-rep.started

	finished := make(chan struct{})
	go func() {
		for ct := 0.25; ct <= 3; ct += 0.25 {
			s.Handle(Event{Kind: TimeUpdate, CurrentTime: ct, Duration: 100})
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("sampling blocked on an in-flight report")
	}

	s.Close()
	if err := <-rep.done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected in-flight report to be cancelled, got %v", err)
	}
}

func TestSession_EndedAlwaysReports100(t *testing.T) {
	rep := &recordingReporter{}
	var overlay []int
	s := NewSession(Options{ModuleID: 3, Reporter: rep, OnProgress: func(p int) { overlay = append(overlay, p) }})
	defer s.Close()

	s.Handle(Event{Kind: TimeUpdate, CurrentTime: 50, Duration: 100})
	d := s.Handle(Event{Kind: Ended})
	s.Wait()

	if !d.Report || d.Percentage != 100 {
		t.Fatalf("expected report of 100, got %+v", d)
	}
	if got := rep.percentages(); len(got) != 1 || got[0] != 100 {
		t.Fatalf("expected single report 100, got %v", got)
	}
	if len(overlay) != 2 || overlay[1] != 100 {
		t.Fatalf("expected overlay updates ending in 100, got %v", overlay)
	}
}

func TestSession_RunConsumesUntilClosed(t *testing.T) {
	rep := &recordingReporter{}
	s := NewSession(Options{ModuleID: 2, Reporter: rep})
	defer s.Close()

	events := make(chan Event, 8)
	events <- Event{Kind: TimeUpdate, CurrentTime: 1, Duration: 0}
	events <- Event{Kind: TimeUpdate, CurrentTime: 0.3, Duration: 10}
	events <- Event{Kind: TimeUpdate, CurrentTime: 1, Duration: 10}
	events <- Event{Kind: Ended}
	close(events)

	s.Run(context.Background(), events)
	s.Wait()

	// Reports are dispatched concurrently, so only the set is stable.
	got := rep.percentages()
	sort.Ints(got)
	if !reflect.DeepEqual(got, []int{10, 100}) {
		t.Fatalf("expected reports {10, 100}, got %v", got)
	}
}

func TestSession_RunWithoutNotificationsIsDegraded(t *testing.T) {
	s := NewSession(Options{ModuleID: 2})
	defer s.Close()

	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately without an event source")
	}
}

func TestHTTPReporter_PostsProgress(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody reportBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true}`))
	}))
	defer srv.Close()

	rep := NewHTTPReporter(srv.URL+"/", "tok")
	if err := rep.Report(context.Background(), Report{ModuleID: 12, Percentage: 35}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/modules/12/progress" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody.Progress != 35 {
		t.Fatalf("expected progress 35, got %d", gotBody.Progress)
	}
}

func TestHTTPReporter_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewHTTPReporter(srv.URL, "").Report(context.Background(), Report{ModuleID: 1, Percentage: 5})
	if err == nil {
		t.Fatal("expected error for 403")
	}
}
