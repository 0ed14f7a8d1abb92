// Package orderapi is the REST adapter for the Checkout/Order Service.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jcmexdev/storefront-orders/internal/pkg/httpjson"
	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/ports"
)

// Ensure Client implements the ports at compile time.
var (
	_ ports.OrderService    = (*Client)(nil)
	_ ports.CartService     = (*Client)(nil)
	_ ports.AddressBook     = (*Client)(nil)
	_ ports.RestockNotifier = (*Client)(nil)
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

const codeMalformedResponse = "malformed_response"

// paymentCodes are body codes that mean money may have moved, whatever the
// status code says.
var paymentCodes = map[string]bool{
	"payment_failed":   true,
	"payment_declined": true,
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns an unauthenticated client. Call WithSession before use.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// WithSession returns a copy of c that authenticates as s.
func (c *Client) WithSession(s ports.Session) *Client {
	out := *c
	out.token = ""
	if s != nil {
		out.token = s.Token()
	}
	return &out
}

// do sends one request and decodes a 2xx body into out. It reports whether
// the response carried a body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (bool, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return false, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := interceptors.RequestID(ctx); id != "" {
		req.Header.Set(constants.HeaderXRequestId, id)
	}
	if key := interceptors.IdempotencyKey(ctx); key != "" && method != http.MethodGet {
		req.Header.Set(constants.HeaderXIdempotencyKey, key)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return false, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, statusError(resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, transportError(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return false, &domain.Error{Kind: domain.KindRejected, Code: codeMalformedResponse,
				Message: "The order service sent a response that could not be read.", Err: err}
		}
	}
	return true, nil
}

func transportError(err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.Error{Kind: domain.KindTimeout, Code: "timeout", Message: "The request timed out.", Err: err}
	case errors.Is(err, context.Canceled):
		return &domain.Error{Kind: domain.KindNetwork, Code: "cancelled", Message: "The request was cancelled.", Err: err}
	case errors.As(err, &ne) && ne.Timeout():
		return &domain.Error{Kind: domain.KindTimeout, Code: "timeout", Message: "The request timed out.", Err: err}
	}
	return &domain.Error{Kind: domain.KindNetwork, Code: "unreachable", Message: "Could not reach the order service.", Err: err}
}

// statusError keeps the server's message verbatim and classifies it by status.
func statusError(resp *http.Response) error {
	var body httpjson.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, &body)

	e := &domain.Error{Code: body.Error, Message: body.Message}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	if e.Code == "" {
		e.Code = fmt.Sprintf("http_%d", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusPaymentRequired || paymentCodes[body.Error]:
		e.Kind = domain.KindPayment
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		e.Kind = domain.KindUnauthenticated
	case resp.StatusCode == http.StatusNotFound:
		e.Kind = domain.KindNotFound
	case resp.StatusCode == http.StatusConflict:
		e.Kind = domain.KindConflict
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		e.Kind = domain.KindValidation
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		e.Kind = domain.KindTimeout
	case resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable:
		e.Kind = domain.KindNetwork
	default:
		e.Kind = domain.KindRejected
	}
	return e
}

func orderPath(id string, suffix ...string) string {
	return "/orders/" + url.PathEscape(id) + strings.Join(suffix, "")
}

func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	ok, err := c.do(ctx, http.MethodGet, orderPath(id), nil, &o)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewError(domain.KindRejected, "empty_order", "The order service returned no order.")
	}
	return &o, nil
}

// mutate returns the echoed order, or nil when the caller has to re-fetch. A
// 2xx whose body cannot be read still means the change was applied.
func (c *Client) mutate(ctx context.Context, path string, body any) (*domain.Order, error) {
	var o domain.Order
	ok, err := c.do(ctx, http.MethodPost, path, body, &o)
	var de *domain.Error
	if errors.As(err, &de) && de.Code == codeMalformedResponse {
		slog.WarnContext(ctx, "ignoring unreadable order in response", "path", path, "error", de.Err)
		return nil, nil
	}
	if err != nil || !ok {
		return nil, err
	}
	return &o, nil
}

func (c *Client) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	return c.mutate(ctx, orderPath(id, "/cancel"), nil)
}

func (c *Client) Refund(ctx context.Context, id string) (*domain.Order, error) {
	return c.mutate(ctx, orderPath(id, "/refund"), nil)
}

func (c *Client) RequestReturn(ctx context.Context, id, reason string) (*domain.Order, error) {
	return c.mutate(ctx, orderPath(id, "/return"), map[string]string{"reason": reason})
}

func (c *Client) ConfirmPayment(ctx context.Context, id, reference string) (*domain.Order, error) {
	return c.mutate(ctx, orderPath(id, "/payment"), map[string]string{"reference": reference})
}

type createdResponse struct {
	OrderID string `json:"orderId"`
}

func (c *Client) create(ctx context.Context, path string, body any) (string, error) {
	var out createdResponse
	if _, err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", err
	}
	if out.OrderID == "" {
		return "", domain.NewError(domain.KindRejected, "missing_order_id", "The order service did not return an order id.")
	}
	return out.OrderID, nil
}

func (c *Client) CreateFromCart(ctx context.Context, address domain.AddressSnapshot) (string, error) {
	return c.create(ctx, "/orders", map[string]any{"address": address})
}

func (c *Client) BuyNow(ctx context.Context, req domain.BuyNowRequest) (string, error) {
	return c.create(ctx, "/orders/buy-now", req)
}
