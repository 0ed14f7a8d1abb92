// Package domain holds the order service's own bookkeeping around the shared
// storefront order model.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	sf "github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

// Record is a stored order plus the metadata only the service sees.
type Record struct {
	Order          *sf.Order
	CustomerID     string
	IdempotencyKey string
	RequestID      string
	UpdatedAt      time.Time
}

// Product is a catalog entry. Stock is tracked per size.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock map[string]int
}

type StockItem struct {
	ProductID string
	Size      string
	Quantity  int
}

type PaymentStatus string

const (
	PaymentCaptured PaymentStatus = "CAPTURED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Payment is an entry of the payments ledger.
type Payment struct {
	OrderID   string
	Reference string
	Amount    decimal.Decimal
	Status    PaymentStatus
	UpdatedAt time.Time
}
