package httpx

import (
	"time"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

type PrepareRequest struct {
	Command string `json:"command"`
	Reason  string `json:"reason,omitempty"`
}

type PaymentRequest struct {
	Reference string `json:"reference"`
}

type CartItemRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type CartResponse struct {
	Items []domain.CartLine `json:"items"`
}

// CheckoutRequest places the cart. AddressID picks a saved address and wins
// over Address.
type CheckoutRequest struct {
	AddressID string          `json:"addressId,omitempty"`
	Address   *domain.Address `json:"address,omitempty"`
}

type CreatedResponse struct {
	OrderID string `json:"orderId"`
}

type AddressesResponse struct {
	Addresses []domain.Address `json:"addresses"`
}

type RestockRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color,omitempty"`
}

type RestockResponse struct {
	Subscribed        bool `json:"subscribed"`
	AlreadySubscribed bool `json:"alreadySubscribed,omitempty"`
}

type JournalEntryResponse struct {
	Command        string    `json:"command"`
	Operation      string    `json:"operation"`
	Outcome        string    `json:"outcome"`
	ErrorKind      string    `json:"errorKind,omitempty"`
	Message        string    `json:"message,omitempty"`
	IdempotencyKey string    `json:"idempotencyKey,omitempty"`
	TraceID        string    `json:"traceId,omitempty"`
	RecordedAt     time.Time `json:"recordedAt"`
}

type JournalResponse struct {
	OrderID string                 `json:"orderId"`
	Entries []JournalEntryResponse `json:"entries"`
}
