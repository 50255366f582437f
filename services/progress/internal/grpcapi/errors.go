package grpcapi

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errDomain = "progress"

func errInvalidArgument(code, msg string, fieldViolations map[string]string) error {
	st := status.New(codes.InvalidArgument, msg)
	info := &errdetails.ErrorInfo{Reason: code, Domain: errDomain}

	bad := &errdetails.BadRequest{}
	for field, desc := range fieldViolations {
		bad.FieldViolations = append(bad.FieldViolations, &errdetails.BadRequest_FieldViolation{Field: field, Description: desc})
	}

	st2, err := st.WithDetails(info, bad)
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}

func errNotFound(code, msg string) error {
	return withInfo(codes.NotFound, code, msg)
}

func errInternal(msg string) error {
	return withInfo(codes.Internal, "INTERNAL", msg)
}

func withInfo(c codes.Code, code, msg string) error {
	st := status.New(c, msg)
	st2, err := st.WithDetails(&errdetails.ErrorInfo{Reason: code, Domain: errDomain})
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}
