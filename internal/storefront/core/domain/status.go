package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the top-level lifecycle state of an order. The canonical form is
// lowercase; ParseStatus is the only place where other casings are accepted.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

var statuses = []Status{
	StatusPending,
	StatusPaid,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusFailed,
	StatusRefunded,
}

// ParseStatus maps a wire value onto the closed Status set.
func ParseStatus(s string) (Status, error) {
	norm := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range statuses {
		if st == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// IsTerminal reports whether no further top-level transition can happen.
// Delivered is terminal for the top-level machine but still hosts returns.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusFailed, StatusRefunded:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("order status: %w", err)
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// PaymentMethod is fixed when the order is created.
type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "ONLINE"
	PaymentCOD    PaymentMethod = "COD"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToUpper(strings.TrimSpace(s))) {
	case PaymentOnline:
		return PaymentOnline, nil
	case PaymentCOD:
		return PaymentCOD, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

func (m *PaymentMethod) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("payment method: %w", err)
	}
	pm, err := ParsePaymentMethod(raw)
	if err != nil {
		return err
	}
	*m = pm
	return nil
}
