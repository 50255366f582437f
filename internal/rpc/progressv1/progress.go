// Package progressv1 is the wire contract of the progress service.
//
// Messages are plain structs carried by the "json" gRPC codec registered in
// this package; clients built with NewProgressServiceClient select it on
// every call.
package progressv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "mediawatch.progress.v1.ProgressService"

const (
	ProgressService_SubmitProgress_FullMethodName = "/" + ServiceName + "/SubmitProgress"
	ProgressService_GetProgress_FullMethodName    = "/" + ServiceName + "/GetProgress"
	ProgressService_GetActivity_FullMethodName    = "/" + ServiceName + "/GetActivity"
)

type Progress struct {
	ModuleId    int64  `json:"module_id"`
	UserId      string `json:"user_id"`
	Percentage  int32  `json:"percentage"`
	UpdatedAtMs int64  `json:"updated_at_ms,omitempty"`
}

func (p *Progress) GetPercentage() int32 {
	if p == nil {
		return 0
	}
	return p.Percentage
}

func (p *Progress) GetUpdatedAtMs() int64 {
	if p == nil {
		return 0
	}
	return p.UpdatedAtMs
}

type Completion struct {
	Required  int32 `json:"required"`
	Applies   bool  `json:"applies"`
	Completed bool  `json:"completed"`
}

func (c *Completion) GetRequired() int32 {
	if c == nil {
		return 0
	}
	return c.Required
}

func (c *Completion) GetCompleted() bool { return c != nil && c.Completed }

type SubmitProgressRequest struct {
	ModuleId   int64  `json:"module_id"`
	UserId     string `json:"user_id"`
	Percentage int32  `json:"percentage"`
}

type SubmitProgressResponse struct {
	Progress   *Progress   `json:"progress"`
	Completion *Completion `json:"completion"`
	// Changed reports whether the stored percentage was inserted or raised.
	Changed bool `json:"changed"`
}

func (r *SubmitProgressResponse) GetProgress() *Progress {
	if r == nil {
		return nil
	}
	return r.Progress
}

type GetProgressRequest struct {
	ModuleId int64  `json:"module_id"`
	UserId   string `json:"user_id"`
}

type GetProgressResponse struct {
	Progress   *Progress   `json:"progress"`
	Completion *Completion `json:"completion"`
}

func (r *GetProgressResponse) GetProgress() *Progress {
	if r == nil {
		return nil
	}
	return r.Progress
}

func (r *GetProgressResponse) GetCompletion() *Completion {
	if r == nil {
		return nil
	}
	return r.Completion
}

type GetActivityRequest struct {
	ModuleId int64 `json:"module_id"`
}

type Activity struct {
	ModuleId          int64  `json:"module_id"`
	Name              string `json:"name"`
	MediaUrl          string `json:"media_url"`
	CompletionMinView int32  `json:"completion_min_view"`
}

type GetActivityResponse struct {
	Activity *Activity `json:"activity"`
}

func (r *GetActivityResponse) GetActivity() *Activity {
	if r == nil {
		return nil
	}
	return r.Activity
}

// ProgressServiceServer is the server API for ProgressService.
type ProgressServiceServer interface {
	SubmitProgress(context.Context, *SubmitProgressRequest) (*SubmitProgressResponse, error)
	GetProgress(context.Context, *GetProgressRequest) (*GetProgressResponse, error)
	GetActivity(context.Context, *GetActivityRequest) (*GetActivityResponse, error)
}

// UnimplementedProgressServiceServer can be embedded for forward compatibility.
type UnimplementedProgressServiceServer struct{}

func (UnimplementedProgressServiceServer) SubmitProgress(context.Context, *SubmitProgressRequest) (*SubmitProgressResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitProgress not implemented")
}

func (UnimplementedProgressServiceServer) GetProgress(context.Context, *GetProgressRequest) (*GetProgressResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProgress not implemented")
}

func (UnimplementedProgressServiceServer) GetActivity(context.Context, *GetActivityRequest) (*GetActivityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetActivity not implemented")
}

func RegisterProgressServiceServer(s grpc.ServiceRegistrar, srv ProgressServiceServer) {
	s.RegisterService(&ProgressService_ServiceDesc, srv)
}

func _ProgressService_SubmitProgress_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SubmitProgressRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProgressServiceServer).SubmitProgress(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProgressService_SubmitProgress_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProgressServiceServer).SubmitProgress(ctx, req.(*SubmitProgressRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ProgressService_GetProgress_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetProgressRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProgressServiceServer).GetProgress(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProgressService_GetProgress_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProgressServiceServer).GetProgress(ctx, req.(*GetProgressRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ProgressService_GetActivity_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetActivityRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProgressServiceServer).GetActivity(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProgressService_GetActivity_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProgressServiceServer).GetActivity(ctx, req.(*GetActivityRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var ProgressService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProgressServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitProgress", Handler: _ProgressService_SubmitProgress_Handler},
		{MethodName: "GetProgress", Handler: _ProgressService_GetProgress_Handler},
		{MethodName: "GetActivity", Handler: _ProgressService_GetActivity_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "progress/v1/progress.proto",
}

// ProgressServiceClient is the client API for ProgressService.
type ProgressServiceClient interface {
	SubmitProgress(ctx context.Context, in *SubmitProgressRequest, opts ...grpc.CallOption) (*SubmitProgressResponse, error)
	GetProgress(ctx context.Context, in *GetProgressRequest, opts ...grpc.CallOption) (*GetProgressResponse, error)
	GetActivity(ctx context.Context, in *GetActivityRequest, opts ...grpc.CallOption) (*GetActivityResponse, error)
}

type progressServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProgressServiceClient(cc grpc.ClientConnInterface) ProgressServiceClient {
	return &progressServiceClient{cc: cc}
}

func (c *progressServiceClient) SubmitProgress(ctx context.Context, in *SubmitProgressRequest, opts ...grpc.CallOption) (*SubmitProgressResponse, error) {
	out := new(SubmitProgressResponse)
	if err := c.cc.Invoke(ctx, ProgressService_SubmitProgress_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *progressServiceClient) GetProgress(ctx context.Context, in *GetProgressRequest, opts ...grpc.CallOption) (*GetProgressResponse, error) {
	out := new(GetProgressResponse)
	if err := c.cc.Invoke(ctx, ProgressService_GetProgress_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *progressServiceClient) GetActivity(ctx context.Context, in *GetActivityRequest, opts ...grpc.CallOption) (*GetActivityResponse, error) {
	out := new(GetActivityResponse)
	if err := c.cc.Invoke(ctx, ProgressService_GetActivity_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
