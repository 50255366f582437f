package grpcapi

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	progressv1 "github.com/example/mediawatch/internal/rpc/progressv1"
	"github.com/example/mediawatch/services/progress/internal/progress"
	"github.com/example/mediawatch/services/progress/internal/store"
)

type ProgressService struct {
	progressv1.UnimplementedProgressServiceServer
	Service *progress.Service
	Log     *zap.Logger
}

func (s *ProgressService) SubmitProgress(ctx context.Context, req *progressv1.SubmitProgressRequest) (*progressv1.SubmitProgressResponse, error) {
	res, err := s.Service.Submit(ctx, req.ModuleId, req.UserId, int(req.Percentage))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &progressv1.SubmitProgressResponse{
		Progress:   toProtoProgress(res.Record),
		Completion: toProtoCompletion(res),
		Changed:    res.Changed,
	}, nil
}

func (s *ProgressService) GetProgress(ctx context.Context, req *progressv1.GetProgressRequest) (*progressv1.GetProgressResponse, error) {
	res, err := s.Service.Get(ctx, req.ModuleId, req.UserId)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &progressv1.GetProgressResponse{
		Progress:   toProtoProgress(res.Record),
		Completion: toProtoCompletion(res),
	}, nil
}

func (s *ProgressService) GetActivity(ctx context.Context, req *progressv1.GetActivityRequest) (*progressv1.GetActivityResponse, error) {
	a, err := s.Service.Activity(ctx, req.ModuleId)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &progressv1.GetActivityResponse{Activity: &progressv1.Activity{
		ModuleId:          a.ID,
		Name:              a.Name,
		MediaUrl:          a.MediaURL,
		CompletionMinView: int32(a.CompletionMinView),
	}}, nil
}

func (s *ProgressService) toStatus(err error) error {
	switch {
	case errors.Is(err, progress.ErrOutOfRange):
		return errInvalidArgument("OUT_OF_RANGE", "percentage must be between 0 and 100",
			map[string]string{"percentage": "must be between 0 and 100"})
	case errors.Is(err, progress.ErrInvalidModule):
		return errInvalidArgument("INVALID_MODULE", "invalid module_id",
			map[string]string{"module_id": "must be positive"})
	case errors.Is(err, progress.ErrInvalidUser):
		return errInvalidArgument("INVALID_USER", "invalid user_id",
			map[string]string{"user_id": "required"})
	case errors.Is(err, progress.ErrActivityNotFound):
		return errNotFound("ACTIVITY_NOT_FOUND", "activity not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	if s.Log != nil {
		s.Log.Error("progress rpc failed", zap.Error(err))
	}
	return errInternal("internal error")
}

func toProtoProgress(r store.ProgressRecord) *progressv1.Progress {
	p := &progressv1.Progress{
		ModuleId:   r.ActivityID,
		UserId:     r.UserID,
		Percentage: int32(r.Percentage),
	}
	if !r.UpdatedAt.IsZero() {
		p.UpdatedAtMs = r.UpdatedAt.UnixMilli()
	}
	return p
}

func toProtoCompletion(res progress.Result) *progressv1.Completion {
	return &progressv1.Completion{
		Required:  int32(res.Required),
		Applies:   res.Completion.Applies,
		Completed: res.Completion.Complete,
	}
}
