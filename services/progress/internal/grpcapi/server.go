package grpcapi

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	progressv1 "github.com/example/mediawatch/internal/rpc/progressv1"
	"github.com/example/mediawatch/services/progress/internal/progress"
)

// NewServer builds the gRPC server with the progress service registered.
//
// Reflection only supports listing services: the contract is hand-written,
// so there is no file descriptor to describe.
func NewServer(svc *progress.Service, log *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	progressv1.RegisterProgressServiceServer(srv, &ProgressService{Service: svc, Log: log})
	reflection.Register(srv)
	return srv
}
