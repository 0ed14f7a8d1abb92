package orderrpc_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/storefront-orders/internal/pkg/orderrpc"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

func TestOrderSurvivesStructEncoding(t *testing.T) {
	o := &domain.Order{
		ID:            "ORD-2",
		Status:        domain.StatusPaid,
		PaymentMethod: domain.PaymentOnline,
		Amount:        decimal.NewNullDecimal(decimal.RequireFromString("1299.50")),
		Items: []domain.LineItem{
			{ProductID: "tee", Size: "M", Quantity: 2, UnitPrice: decimal.RequireFromString("649.75")},
		},
	}
	raw, err := json.Marshal(o)
	require.NoError(t, err)

	s, err := orderrpc.Encode(orderrpc.OrderResponse{Order: raw})
	require.NoError(t, err)

	var resp orderrpc.OrderResponse
	require.NoError(t, orderrpc.Decode(s, &resp))

	var got domain.Order
	require.NoError(t, json.Unmarshal(resp.Order, &got))
	assert.Equal(t, "ORD-2", got.ID)
	assert.True(t, got.Amount.Valid)
	assert.Equal(t, "1299.5", got.Amount.Decimal.String())
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestMissingAmountStaysMissing(t *testing.T) {
	s, err := orderrpc.Encode(map[string]any{"orderId": "ORD-7", "status": "pending", "paymentMethod": "COD", "amount": nil})
	require.NoError(t, err)

	var got domain.Order
	require.NoError(t, orderrpc.Decode(s, &got))
	assert.False(t, got.Amount.Valid)
}

func TestStatusRoundTripKeepsKindAndCode(t *testing.T) {
	for _, kind := range []domain.Kind{
		domain.KindValidation, domain.KindNotFound, domain.KindConflict,
		domain.KindPayment, domain.KindRejected, domain.KindUnauthenticated,
	} {
		t.Run(string(kind), func(t *testing.T) {
			in := domain.NewError(kind, "some_code", "server said no")
			out := orderrpc.FromStatus(orderrpc.ToStatus(fmt.Errorf("wrapped: %w", in)))

			var e *domain.Error
			require.True(t, errors.As(out, &e))
			assert.Equal(t, kind, e.Kind)
			assert.Equal(t, "some_code", e.Code)
			assert.Equal(t, "server said no", e.Message)
		})
	}
}

func TestFromStatusWithoutDetails(t *testing.T) {
	cases := map[codes.Code]domain.Kind{
		codes.DeadlineExceeded: domain.KindTimeout,
		codes.Unavailable:      domain.KindNetwork,
		codes.NotFound:         domain.KindNotFound,
		codes.Aborted:          domain.KindConflict,
		codes.Internal:         domain.KindRejected,
	}
	for code, kind := range cases {
		err := orderrpc.FromStatus(status.Error(code, "boom"))
		assert.Equal(t, kind, domain.KindOf(err), code.String())
	}

	assert.Equal(t, domain.KindNetwork, domain.KindOf(orderrpc.FromStatus(errors.New("dial tcp: refused"))))
	assert.Nil(t, orderrpc.FromStatus(nil))
}
