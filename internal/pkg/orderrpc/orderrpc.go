// Package orderrpc describes the gRPC form of the order service contract.
//
// Messages are google.protobuf.Struct values carrying the same JSON documents
// the REST API exchanges, so both transports share one schema.
package orderrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "storefront.order.v1.OrderService"

const (
	MethodGetOrder       = "GetOrder"
	MethodCreateFromCart = "CreateFromCart"
	MethodBuyNow         = "BuyNow"
	MethodCancelOrder    = "CancelOrder"
	MethodRefundOrder    = "RefundOrder"
	MethodRequestReturn  = "RequestReturn"
	MethodConfirmPayment = "ConfirmPayment"
)

// FullMethod returns the method path used on the wire.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Request and response documents.
type (
	OrderRequest struct {
		OrderID   string `json:"orderId"`
		Reason    string `json:"reason,omitempty"`
		Reference string `json:"reference,omitempty"`
	}

	// OrderResponse carries the order when the server echoes it.
	OrderResponse struct {
		Order json.RawMessage `json:"order,omitempty"`
	}

	CreatedResponse struct {
		OrderID string `json:"orderId"`
	}
)

// Encode converts any JSON-serialisable value into a Struct.
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("orderrpc encode: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("orderrpc encode: %w", err)
	}
	return s, nil
}

// Decode converts a Struct into v.
func Decode(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("orderrpc decode: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("orderrpc decode: %w", err)
	}
	return nil
}

// Server is implemented by the order service.
type Server interface {
	GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateFromCart(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	BuyNow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CancelOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RefundOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RequestReturn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ConfirmPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client invokes the contract over a client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call sends req to method and returns the response document.
func (c *Client) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type unaryMethod func(srv Server, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func handler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Server), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(Server), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		handler(MethodGetOrder, Server.GetOrder),
		handler(MethodCreateFromCart, Server.CreateFromCart),
		handler(MethodBuyNow, Server.BuyNow),
		handler(MethodCancelOrder, Server.CancelOrder),
		handler(MethodRefundOrder, Server.RefundOrder),
		handler(MethodRequestReturn, Server.RequestReturn),
		handler(MethodConfirmPayment, Server.ConfirmPayment),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/order/v1/order.proto",
}
