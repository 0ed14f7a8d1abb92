package app

import (
	"context"
	"encoding/json"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/storefront-orders/internal/pkg/orderrpc"
	sf "github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/session"
)

type orderServer struct {
	svc  *Service
	echo bool
}

var _ orderrpc.Server = (*orderServer)(nil)

// NewOrderServer exposes the order subset of svc over gRPC.
func NewOrderServer(svc *Service, echo bool) orderrpc.Server {
	return &orderServer{svc: svc, echo: echo}
}

func customerFromMetadata(ctx context.Context) (string, error) {
	s := session.FromAuthorization(interceptors.GetMetadataValue(ctx, constants.HeaderAuthorization))
	if !s.IsAuthenticated() {
		return "", orderrpc.ToStatus(sf.NewError(sf.KindUnauthenticated, "unauthenticated", "A valid bearer token is required."))
	}
	return s.Subject(), nil
}

func (o *orderServer) orderCall(ctx context.Context, req *structpb.Struct,
	call func(customer string, in orderrpc.OrderRequest) (*sf.Order, error),
) (*structpb.Struct, error) {
	customer, err := customerFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	var in orderrpc.OrderRequest
	if err := orderrpc.Decode(req, &in); err != nil {
		return nil, orderrpc.ToStatus(sf.Validationf(sf.CodeInvalidOrder, "%v", err))
	}
	order, err := call(customer, in)
	if err != nil {
		return nil, orderrpc.ToStatus(err)
	}
	var resp orderrpc.OrderResponse
	if o.echo {
		if resp.Order, err = json.Marshal(order); err != nil {
			return nil, orderrpc.ToStatus(err)
		}
	}
	return encode(resp)
}

func encode(v any) (*structpb.Struct, error) {
	s, err := orderrpc.Encode(v)
	if err != nil {
		return nil, orderrpc.ToStatus(err)
	}
	return s, nil
}

func (o *orderServer) GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	customer, err := customerFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	var in orderrpc.OrderRequest
	if err := orderrpc.Decode(req, &in); err != nil {
		return nil, orderrpc.ToStatus(sf.Validationf(sf.CodeInvalidOrder, "%v", err))
	}
	order, err := o.svc.GetOrder(ctx, customer, in.OrderID)
	if err != nil {
		return nil, orderrpc.ToStatus(err)
	}
	return encode(order)
}

func (o *orderServer) CreateFromCart(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	customer, err := customerFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	var in createRequest
	if err := orderrpc.Decode(req, &in); err != nil {
		return nil, orderrpc.ToStatus(sf.Validationf(sf.CodeInvalidAddress, "%v", err))
	}
	id, err := o.svc.CreateFromCart(ctx, customer, in.Address)
	if err != nil {
		return nil, orderrpc.ToStatus(err)
	}
	return encode(orderrpc.CreatedResponse{OrderID: id})
}

func (o *orderServer) BuyNow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	customer, err := customerFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	var in sf.BuyNowRequest
	if err := orderrpc.Decode(req, &in); err != nil {
		return nil, orderrpc.ToStatus(sf.Validationf(sf.CodeInvalidItem, "%v", err))
	}
	id, err := o.svc.BuyNow(ctx, customer, in)
	if err != nil {
		return nil, orderrpc.ToStatus(err)
	}
	return encode(orderrpc.CreatedResponse{OrderID: id})
}

func (o *orderServer) CancelOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return o.orderCall(ctx, req, func(customer string, in orderrpc.OrderRequest) (*sf.Order, error) {
		return o.svc.Cancel(ctx, customer, in.OrderID)
	})
}

func (o *orderServer) RefundOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return o.orderCall(ctx, req, func(customer string, in orderrpc.OrderRequest) (*sf.Order, error) {
		return o.svc.Refund(ctx, customer, in.OrderID)
	})
}

func (o *orderServer) RequestReturn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return o.orderCall(ctx, req, func(customer string, in orderrpc.OrderRequest) (*sf.Order, error) {
		return o.svc.RequestReturn(ctx, customer, in.OrderID, in.Reason)
	})
}

func (o *orderServer) ConfirmPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return o.orderCall(ctx, req, func(customer string, in orderrpc.OrderRequest) (*sf.Order, error) {
		return o.svc.ConfirmPayment(ctx, customer, in.OrderID, in.Reference)
	})
}
