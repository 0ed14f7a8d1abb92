package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the canonical purchase record. It is created by the Checkout/Order
// Service; afterwards only Status changes and Shipment/Return are attached.
type Order struct {
	ID            string              `json:"orderId"`
	Status        Status              `json:"status"`
	PaymentMethod PaymentMethod       `json:"paymentMethod"`
	Amount        decimal.NullDecimal `json:"amount"`
	Items         []LineItem          `json:"items"`
	Address       AddressSnapshot     `json:"address"`
	Shipment      *Shipment           `json:"shipment,omitempty"`
	Return        *Return             `json:"return,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// LineItem captures the price at purchase time, not the live catalog price.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// HasReturn reports whether a return has already been requested.
func (o *Order) HasReturn() bool {
	return o.Return != nil && o.Return.Status != ""
}

// Validate checks the structural invariants of an order received from the
// server. Lifecycle rules are enforced by the transition table instead.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return Validationf(CodeInvalidOrder, "order id is required")
	}
	if o.Status == "" {
		return Validationf(CodeInvalidOrder, "order %s has no status", o.ID)
	}
	if o.PaymentMethod == "" {
		return Validationf(CodeInvalidOrder, "order %s has no payment method", o.ID)
	}
	if o.Amount.Valid && o.Amount.Decimal.IsNegative() {
		return Validationf(CodeInvalidOrder, "order %s has a negative amount", o.ID)
	}
	for i, it := range o.Items {
		if it.Quantity < 1 {
			return Validationf(CodeInvalidOrder, "order %s item %d: quantity must be at least 1", o.ID, i)
		}
		if it.UnitPrice.IsNegative() {
			return Validationf(CodeInvalidOrder, "order %s item %d: unit price must not be negative", o.ID, i)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can hand out orders without sharing
// the nested shipment, return or item slices.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]LineItem(nil), o.Items...)
	if o.Shipment != nil {
		s := *o.Shipment
		c.Shipment = &s
	}
	if o.Return != nil {
		r := *o.Return
		c.Return = &r
	}
	return &c
}

func (o *Order) String() string {
	return fmt.Sprintf("order %s (%s, %s)", o.ID, o.Status, o.PaymentMethod)
}

// BuyNowRequest creates an order for a single product, bypassing the cart.
type BuyNowRequest struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Address   AddressSnapshot `json:"address"`
}

func (r BuyNowRequest) Validate() error {
	if strings.TrimSpace(r.ProductID) == "" {
		return Validationf(CodeInvalidItem, "product is required")
	}
	if r.Quantity < 1 {
		return Validationf(CodeInvalidItem, "quantity must be at least 1")
	}
	if strings.TrimSpace(r.Size) == "" {
		return Validationf(CodeInvalidItem, "size is required")
	}
	return r.Address.Validate()
}
