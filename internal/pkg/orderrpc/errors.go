package orderrpc

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

// ErrorDomain identifies ErrorInfo details set by the order service.
const ErrorDomain = "order.storefront"

const metadataKind = "kind"

var kindCodes = map[domain.Kind]codes.Code{
	domain.KindValidation:      codes.InvalidArgument,
	domain.KindNotFound:        codes.NotFound,
	domain.KindConflict:        codes.Aborted,
	domain.KindPayment:         codes.FailedPrecondition,
	domain.KindUnauthenticated: codes.Unauthenticated,
	domain.KindTimeout:         codes.DeadlineExceeded,
	domain.KindNetwork:         codes.Unavailable,
	domain.KindRejected:        codes.FailedPrecondition,
}

// ToStatus converts err into a gRPC status error that keeps its kind and code.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	var e *domain.Error
	if !errors.As(err, &e) {
		return status.Error(codes.Internal, err.Error())
	}
	code, ok := kindCodes[e.Kind]
	if !ok {
		code = codes.Unknown
	}
	st := status.New(code, e.Message)
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   e.Code,
		Domain:   ErrorDomain,
		Metadata: map[string]string{metadataKind: string(e.Kind)},
	})
	if derr != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// FromStatus converts a gRPC call error into a *domain.Error. The server's
// message is kept verbatim.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.Error{Kind: domain.KindTimeout, Code: "timeout", Message: "The request timed out.", Err: err}
	case errors.Is(err, context.Canceled):
		return &domain.Error{Kind: domain.KindNetwork, Code: "cancelled", Message: "The request was cancelled.", Err: err}
	}

	st, ok := status.FromError(err)
	if !ok {
		return &domain.Error{Kind: domain.KindNetwork, Code: "unreachable", Message: "Could not reach the order service.", Err: err}
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		return &domain.Error{
			Kind:    domain.Kind(info.GetMetadata()[metadataKind]),
			Code:    info.GetReason(),
			Message: st.Message(),
			Err:     err,
		}
	}

	e := &domain.Error{Code: st.Code().String(), Message: st.Message(), Err: err}
	switch st.Code() {
	case codes.InvalidArgument:
		e.Kind = domain.KindValidation
	case codes.NotFound:
		e.Kind = domain.KindNotFound
	case codes.Aborted, codes.AlreadyExists:
		e.Kind = domain.KindConflict
	case codes.Unauthenticated, codes.PermissionDenied:
		e.Kind = domain.KindUnauthenticated
	case codes.DeadlineExceeded:
		e.Kind = domain.KindTimeout
	case codes.Unavailable, codes.Canceled:
		e.Kind = domain.KindNetwork
		if e.Message == "" {
			e.Message = "Could not reach the order service."
		}
	default:
		e.Kind = domain.KindRejected
	}
	return e
}
