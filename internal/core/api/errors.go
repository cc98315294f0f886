package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"

	"github.com/solatis/vesmapper/internal/rules"
	"github.com/solatis/vesmapper/internal/types"
)

// toStatus maps engine errors to gRPC status.
// Undecodable and invalid documents map to INVALID_ARGUMENT, the latter with
// the diagnostics report attached as a detail.
// Catalog failures map to UNAVAILABLE.
// Configuration errors map to INTERNAL.
// Context timeouts map to DEADLINE_EXCEEDED.
func toStatus(err error) error {
	if err == nil {
		return nil
	}

	var invalid *rules.InvalidDocumentError
	switch {
	case errors.As(err, &invalid):
		st := status.New(codes.InvalidArgument, err.Error())
		report, rerr := diagnosticsReport(invalid.Diagnostics)
		if rerr != nil {
			return st.Err()
		}
		if withDetails, derr := st.WithDetails(protoadapt.MessageV1Of(report)); derr == nil {
			return withDetails.Err()
		}
		return st.Err()
	case errors.Is(err, types.ErrConfiguration):
		return status.Error(codes.Internal, err.Error())
	case errors.Is(err, types.ErrCatalogUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case isDecodeError(err):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// decodeError marks failures to parse the request document.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "invalid document: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	var d *decodeError
	return errors.As(err, &d)
}
