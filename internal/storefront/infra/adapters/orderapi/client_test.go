package orderapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/order-service/app"
	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/infra/adapters/orderapi"
	"github.com/jcmexdev/storefront-orders/internal/storefront/session"
)

var address = domain.AddressSnapshot{
	Name: "Asha Rao", Line1: "12 MG Road", City: "Bengaluru",
	State: "Karnataka", Pincode: "560001", Phone: "9876543210",
}

func newBackend(t *testing.T, echo bool) (*orderapi.Client, *app.Service) {
	t.Helper()
	svc := app.NewService(app.Options{})
	svc.Seed("demo")
	srv := httptest.NewServer(app.NewRouter(svc, echo))
	t.Cleanup(srv.Close)
	return orderapi.New(srv.URL, srv.Client()).WithSession(session.New("demo")), svc
}

func TestGetOrder(t *testing.T) {
	c, _ := newBackend(t, true)

	o, err := c.GetOrder(context.Background(), "ORD-2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, o.Status)
	assert.Equal(t, domain.PaymentOnline, o.PaymentMethod)
	assert.Equal(t, "100.00", o.Amount.Decimal.StringFixed(2))
	assert.Len(t, o.Items, 1)

	_, err = c.GetOrder(context.Background(), "ORD-404")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMutationsEchoTheOrder(t *testing.T) {
	c, _ := newBackend(t, true)
	ctx := context.Background()

	o, err := c.Cancel(ctx, "ORD-1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, domain.StatusCancelled, o.Status)

	o, err = c.Refund(ctx, "ORD-2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, o.Status)

	o, err = c.RequestReturn(ctx, "ORD-3", "wrong size")
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnRequested, o.Return.Status)
	assert.Equal(t, "wrong size", o.Return.Reason)
}

func TestMutationWithoutEchoReturnsNil(t *testing.T) {
	c, _ := newBackend(t, false)

	o, err := c.Cancel(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Nil(t, o)

	fetched, err := c.GetOrder(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, fetched.Status)
}

func TestUnreadableEchoMeansRefetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orderId":"ORD-1","status":"on_hold","paymentMethod":"COD"}`))
	}))
	t.Cleanup(srv.Close)
	c := orderapi.New(srv.URL, srv.Client()).WithSession(session.New("demo"))

	o, err := c.Cancel(context.Background(), "ORD-1")
	require.NoError(t, err, "a 2xx is an applied change even when its body cannot be read")
	assert.Nil(t, o)

	_, err = c.GetOrder(context.Background(), "ORD-1")
	var e *domain.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, domain.KindRejected, e.Kind)
}

func TestServerErrorsAreClassified(t *testing.T) {
	c, svc := newBackend(t, true)
	ctx := context.Background()

	_, err := c.Cancel(ctx, "ORD-3")
	var e *domain.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, domain.KindConflict, e.Kind)
	assert.Equal(t, domain.CodeNotCancellable, e.Code)
	assert.Equal(t, "An order that is delivered cannot be cancelled.", e.Message)

	_, err = c.ConfirmPayment(ctx, "ORD-2", "")
	assert.True(t, errors.Is(err, &domain.Error{Kind: domain.KindValidation, Code: domain.CodeReferenceRequired}))

	_, err = c.WithSession(session.Anonymous()).GetOrder(ctx, "ORD-1")
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))

	_, err = c.BuyNow(ctx, domain.BuyNowRequest{ProductID: "tee-classic", Quantity: 200, Size: "M", Address: address})
	assert.True(t, errors.Is(err, domain.ErrConflict), "out of stock")
	assert.Empty(t, svc.GetCart(ctx, "demo"))
}

func TestPaymentErrorIsDistinct(t *testing.T) {
	c, _ := newBackend(t, true)
	ctx := context.Background()

	id, err := c.BuyNow(ctx, domain.BuyNowRequest{ProductID: "denim-slim", Quantity: 4, Size: "32", Address: address})
	require.NoError(t, err)

	_, err = c.ConfirmPayment(ctx, id, "pay_big")
	var e *domain.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, domain.KindPayment, e.Kind)
	assert.Equal(t, "The payment was declined by the provider.", e.Message)

	o, err := c.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, o.Status)
}

func TestTimeoutAndNetworkFailures(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := orderapi.New(slow.URL, nil).WithSession(session.New("demo")).Cancel(ctx, "ORD-1")
	assert.True(t, errors.Is(err, domain.ErrTimeout))

	gone := httptest.NewServer(http.NotFoundHandler())
	url := gone.URL
	gone.Close()
	_, err = orderapi.New(url, nil).WithSession(session.New("demo")).GetOrder(context.Background(), "ORD-1")
	assert.True(t, errors.Is(err, domain.ErrNetwork))
	assert.True(t, domain.KindOf(err) == domain.KindNetwork)
}

func TestHeadersAreForwarded(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx := interceptors.WithRequestID(context.Background(), "req-1")
	ctx = interceptors.WithIdempotencyKey(ctx, "idem-1")
	o, err := orderapi.New(srv.URL, nil).WithSession(session.New("tok")).Cancel(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Nil(t, o)
	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	assert.Equal(t, "req-1", got.Get("X-Request-Id"))
	assert.Equal(t, "idem-1", got.Get("X-Idempotency-Key"))
}

func TestCreateIsIdempotent(t *testing.T) {
	c, _ := newBackend(t, true)
	ctx := interceptors.WithIdempotencyKey(context.Background(), "checkout-1")

	require.NoError(t, c.SetCartItem(ctx, domain.CartLine{CartKey: domain.CartKey{ProductID: "tee-classic", Size: "L"}, Quantity: 2}))
	lines, err := c.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	first, err := c.CreateFromCart(ctx, address)
	require.NoError(t, err)
	second, err := c.CreateFromCart(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	lines, err = c.GetCart(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestAddressBookAndRestock(t *testing.T) {
	c, svc := newBackend(t, true)
	ctx := context.Background()

	a, err := c.CreateAddress(ctx, domain.Address{Title: "Home", Name: "Asha", Line1: "12 MG Road", City: "Bengaluru", State: "KA", Pincode: "560001", Phone: "9876543210"})
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)

	a.Line1 = "14 MG Road"
	_, err = c.UpdateAddress(ctx, a)
	require.NoError(t, err)

	list, err := c.ListAddresses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "14 MG Road", list[0].Line1)

	require.NoError(t, c.DeleteAddress(ctx, a.ID))
	assert.True(t, errors.Is(c.DeleteAddress(ctx, a.ID), domain.ErrNotFound))

	_, err = c.CreateAddress(ctx, domain.Address{Name: "Asha"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	require.NoError(t, c.SubscribeRestock(ctx, "sneaker-run", "9", "black"))
	assert.Equal(t, 1, svc.RestockSubscriptions("demo"))

	require.NoError(t, c.RemoveCartItem(ctx, domain.CartKey{ProductID: "tee-classic", Size: "M"}))
}
