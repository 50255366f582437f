package grpcclient

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	progressv1 "github.com/example/mediawatch/internal/rpc/progressv1"
)

type ProgressClient struct {
	Conn   *grpc.ClientConn
	Client progressv1.ProgressServiceClient
}

func NewProgressClient(addr string) (*ProgressClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &ProgressClient{Conn: conn, Client: progressv1.NewProgressServiceClient(conn)}, nil
}
