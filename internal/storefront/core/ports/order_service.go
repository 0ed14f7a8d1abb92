package ports

import (
	"context"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

// OrderService is the Checkout/Order Service contract. Mutating calls return
// the updated order when the backend echoes it and nil otherwise; callers
// re-fetch in that case. Errors are *domain.Error values.
type OrderService interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	CreateFromCart(ctx context.Context, address domain.AddressSnapshot) (string, error)
	BuyNow(ctx context.Context, req domain.BuyNowRequest) (string, error)
	Cancel(ctx context.Context, id string) (*domain.Order, error)
	Refund(ctx context.Context, id string) (*domain.Order, error)
	RequestReturn(ctx context.Context, id, reason string) (*domain.Order, error)
	ConfirmPayment(ctx context.Context, id, paymentReference string) (*domain.Order, error)
}

// CartService holds the authenticated user's pending line items.
type CartService interface {
	GetCart(ctx context.Context) ([]domain.CartLine, error)
	SetCartItem(ctx context.Context, line domain.CartLine) error
	RemoveCartItem(ctx context.Context, key domain.CartKey) error
}

// AddressBook manages the user's saved addresses.
type AddressBook interface {
	ListAddresses(ctx context.Context) ([]domain.Address, error)
	CreateAddress(ctx context.Context, a domain.Address) (domain.Address, error)
	UpdateAddress(ctx context.Context, a domain.Address) (domain.Address, error)
	DeleteAddress(ctx context.Context, id string) error
}

// RestockNotifier registers interest in an out-of-stock variant.
type RestockNotifier interface {
	SubscribeRestock(ctx context.Context, productID, size, color string) error
}
