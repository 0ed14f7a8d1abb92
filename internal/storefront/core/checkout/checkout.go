// Package checkout turns a cart or a single product into a new order.
package checkout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/ports"
)

// Backend is everything checkout needs from the order backend.
type Backend interface {
	ports.OrderService
	ports.CartService
	ports.AddressBook
}

// Checkout holds a local mirror of one user's cart. The mirror is loaded on
// first use and kept in step with every successful backend write.
type Checkout struct {
	session ports.Session
	backend Backend

	mu     sync.Mutex
	cart   *domain.Cart
	placed string
}

func New(s ports.Session, backend Backend) *Checkout {
	return &Checkout{session: s, backend: backend}
}

func (c *Checkout) requireSession() error {
	if c.session == nil || !c.session.IsAuthenticated() {
		return domain.NewError(domain.KindUnauthenticated, "unauthenticated", "Sign in to continue.")
	}
	return nil
}

// withKey reuses the caller's idempotency key when there is one.
func withKey(ctx context.Context) context.Context {
	if interceptors.IdempotencyKey(ctx) != "" {
		return ctx
	}
	return interceptors.WithIdempotencyKey(ctx, uuid.NewString())
}

func (c *Checkout) loadLocked(ctx context.Context) error {
	if c.cart != nil {
		return nil
	}
	lines, err := c.backend.GetCart(ctx)
	if err != nil {
		return err
	}
	c.cart = domain.NewCart(lines)
	return nil
}

// Cart returns the cart lines, loading them on first use.
func (c *Checkout) Cart(ctx context.Context) ([]domain.CartLine, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(ctx); err != nil {
		return nil, err
	}
	return c.cart.Lines(), nil
}

// SetItem sets the quantity of a line. Zero removes the line.
func (c *Checkout) SetItem(ctx context.Context, key domain.CartKey, qty int) ([]domain.CartLine, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(ctx); err != nil {
		return nil, err
	}

	next := domain.NewCart(c.cart.Lines())
	if err := next.Set(key, qty); err != nil {
		return nil, err
	}
	var err error
	if qty == 0 {
		err = c.backend.RemoveCartItem(ctx, key)
	} else {
		err = c.backend.SetCartItem(ctx, domain.CartLine{CartKey: key, Quantity: qty})
	}
	if err != nil {
		return nil, err
	}
	c.cart = next
	return c.cart.Lines(), nil
}

// PlaceFromCart orders the whole cart for delivery to address. The local
// mirror is cleared once the backend has accepted the order.
func (c *Checkout) PlaceFromCart(ctx context.Context, address domain.Address) (string, error) {
	if err := c.requireSession(); err != nil {
		return "", err
	}
	if err := address.Validate(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(ctx); err != nil {
		return "", err
	}
	if c.cart.IsEmpty() {
		return "", domain.Validationf(domain.CodeInvalidItem, "your cart is empty")
	}

	id, err := c.backend.CreateFromCart(withKey(ctx), address.Snapshot())
	if err != nil {
		return "", err
	}
	c.cart.Clear()
	c.placed = id
	slog.InfoContext(ctx, "order placed from cart", "order_id", id, "customer", c.session.Subject())
	return id, nil
}

// PlaceFromSavedAddress looks up a saved address by id and places the cart.
func (c *Checkout) PlaceFromSavedAddress(ctx context.Context, addressID string) (string, error) {
	if err := c.requireSession(); err != nil {
		return "", err
	}
	list, err := c.backend.ListAddresses(ctx)
	if err != nil {
		return "", err
	}
	for _, a := range list {
		if a.ID == addressID {
			return c.PlaceFromCart(ctx, a)
		}
	}
	return "", domain.NewError(domain.KindNotFound, "address_not_found", "That address is no longer in your address book.")
}

// BuyNow orders a single product. The cart is not touched.
func (c *Checkout) BuyNow(ctx context.Context, req domain.BuyNowRequest) (string, error) {
	if err := c.requireSession(); err != nil {
		return "", err
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	id, err := c.backend.BuyNow(withKey(ctx), req)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.placed = id
	c.mu.Unlock()
	slog.InfoContext(ctx, "buy-now order placed", "order_id", id, "product_id", req.ProductID, "customer", c.session.Subject())
	return id, nil
}

// LastOrder is the id of the most recent order placed through c.
func (c *Checkout) LastOrder() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.placed
}
