package interceptors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors/constants"
)

func TestClientInterceptorPropagatesKeys(t *testing.T) {
	ctx := interceptors.WithRequestID(context.Background(), "req-1")
	ctx = interceptors.WithIdempotencyKey(ctx, "idem-1")

	var got metadata.MD
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		got, _ = metadata.FromOutgoingContext(ctx)
		return nil
	}
	require.NoError(t, interceptors.UnaryClientInterceptor()(ctx, "/svc/M", nil, nil, nil, invoker))
	assert.Equal(t, []string{"req-1"}, got.Get(constants.HeaderXRequestId))
	assert.Equal(t, []string{"idem-1"}, got.Get(constants.HeaderXIdempotencyKey))
}

func TestServerInterceptorLiftsMetadata(t *testing.T) {
	md := metadata.Pairs(constants.HeaderXRequestId, "req-2", constants.HeaderXIdempotencyKey, "idem-2")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	var reqID, key string
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		reqID = interceptors.RequestID(ctx)
		key = interceptors.IdempotencyKey(ctx)
		return nil, nil
	}
	_, err := interceptors.TraceServerInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/M"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "req-2", reqID)
	assert.Equal(t, "idem-2", key)
	assert.Equal(t, "req-2", interceptors.GetMetadataValue(ctx, constants.HeaderXRequestId))
	assert.Empty(t, interceptors.GetMetadataValue(context.Background(), constants.HeaderXRequestId))
}
