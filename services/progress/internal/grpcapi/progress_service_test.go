package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	progressv1 "github.com/example/mediawatch/internal/rpc/progressv1"
	"github.com/example/mediawatch/services/progress/internal/completion"
	"github.com/example/mediawatch/services/progress/internal/progress"
	"github.com/example/mediawatch/services/progress/internal/store"
)

func newClient(t *testing.T) progressv1.ProgressServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	progressv1.RegisterProgressServiceServer(srv, &ProgressService{Service: &progress.Service{
		Progress: store.NewInMemoryProgressRepository(),
		Activities: store.NewInMemoryActivityRepository(store.Activity{
			ID: 7, Name: "Orientation", MediaURL: "https://media.example.edu/v/xyz", CompletionMinView: 80,
		}),
		Notifier: completion.NopNotifier{},
	}})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return progressv1.NewProgressServiceClient(conn)
}

func TestSubmitProgress_MergesOverTheWire(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	resp, err := c.SubmitProgress(ctx, &progressv1.SubmitProgressRequest{ModuleId: 7, UserId: "viewer", Percentage: 85})
	if err != nil {
		t.Fatalf("SubmitProgress: %v", err)
	}
	if !resp.Changed || resp.GetProgress().GetPercentage() != 85 || !resp.Completion.GetCompleted() {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.GetProgress().GetUpdatedAtMs() == 0 {
		t.Fatal("expected updated_at_ms")
	}

	resp, err = c.SubmitProgress(ctx, &progressv1.SubmitProgressRequest{ModuleId: 7, UserId: "viewer", Percentage: 40})
	if err != nil {
		t.Fatalf("SubmitProgress: %v", err)
	}
	if resp.Changed || resp.GetProgress().GetPercentage() != 85 {
		t.Fatalf("late report resp = %+v", resp)
	}

	got, err := c.GetProgress(ctx, &progressv1.GetProgressRequest{ModuleId: 7, UserId: "viewer"})
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if got.GetProgress().GetPercentage() != 85 || got.GetCompletion().GetRequired() != 80 {
		t.Fatalf("get = %+v", got)
	}
}

func TestSubmitProgress_OutOfRange(t *testing.T) {
	c := newClient(t)

	_, err := c.SubmitProgress(context.Background(), &progressv1.SubmitProgressRequest{ModuleId: 7, UserId: "viewer", Percentage: 150})
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	var found bool
	for _, d := range st.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok {
			for _, v := range br.GetFieldViolations() {
				if v.GetField() == "percentage" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatalf("expected percentage field violation, details=%v", st.Details())
	}
}

func TestSubmitProgress_UnknownActivity(t *testing.T) {
	c := newClient(t)

	_, err := c.SubmitProgress(context.Background(), &progressv1.SubmitProgressRequest{ModuleId: 8, UserId: "viewer", Percentage: 10})
	if s, ok := status.FromError(err); !ok || s.Code() != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestGetProgress_MissingUser(t *testing.T) {
	c := newClient(t)

	_, err := c.GetProgress(context.Background(), &progressv1.GetProgressRequest{ModuleId: 7})
	if s, ok := status.FromError(err); !ok || s.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestGetActivity(t *testing.T) {
	c := newClient(t)

	resp, err := c.GetActivity(context.Background(), &progressv1.GetActivityRequest{ModuleId: 7})
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	a := resp.GetActivity()
	if a.Name != "Orientation" || a.CompletionMinView != 80 || a.MediaUrl != "https://media.example.edu/v/xyz" {
		t.Fatalf("activity = %+v", a)
	}

	_, err = c.GetActivity(context.Background(), &progressv1.GetActivityRequest{ModuleId: 1})
	if s, ok := status.FromError(err); !ok || s.Code() != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestToStatus_ContextErrors(t *testing.T) {
	svc := &ProgressService{}
	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"canceled", fmt.Errorf("merge progress: %w", context.Canceled), codes.Canceled},
		{"deadline", fmt.Errorf("merge progress: %w", context.DeadlineExceeded), codes.DeadlineExceeded},
		{"other", errors.New("disk on fire"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := status.Code(svc.toStatus(tc.err)); got != tc.want {
				t.Fatalf("code = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNewServer_RegistersProgressAndReflection(t *testing.T) {
	srv := NewServer(&progress.Service{}, nil)
	defer srv.Stop()

	info := srv.GetServiceInfo()
	if _, ok := info[progressv1.ServiceName]; !ok {
		t.Fatalf("progress service not registered: %v", info)
	}
	if _, ok := info["grpc.reflection.v1.ServerReflection"]; !ok {
		t.Fatalf("reflection not registered: %v", info)
	}
	if md := info[progressv1.ServiceName].Metadata; md != "progress/v1/progress.proto" {
		t.Fatalf("metadata = %v", md)
	}
}
