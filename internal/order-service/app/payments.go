package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	sf "github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

// chargeLimit is the largest amount the simulated provider accepts.
var chargeLimit = decimal.NewFromInt(5000)

type payments struct {
	mu     sync.Mutex
	ledger map[string]*domain.Payment
	now    func() time.Time
}

func newPayments(now func() time.Time) *payments {
	return &payments{ledger: make(map[string]*domain.Payment), now: now}
}

func (p *payments) Charge(orderID, reference string, amount decimal.Decimal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount.GreaterThan(chargeLimit) {
		slog.Info("payment declined", "order_id", orderID, "amount", amount.StringFixed(2))
		return sf.NewError(sf.KindPayment, "payment_declined", "The payment was declined by the provider.")
	}
	if existing, ok := p.ledger[orderID]; ok && existing.Status == domain.PaymentCaptured {
		return sf.NewError(sf.KindConflict, "already_paid", "This order has already been paid.")
	}
	p.ledger[orderID] = &domain.Payment{
		OrderID:   orderID,
		Reference: reference,
		Amount:    amount,
		Status:    domain.PaymentCaptured,
		UpdatedAt: p.now(),
	}
	return nil
}

// Refund reverses a captured payment. Refunding an order with no captured
// payment is a payment error, never a silent success.
func (p *payments) Refund(orderID string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pay, ok := p.ledger[orderID]
	if !ok || pay.Status != domain.PaymentCaptured {
		slog.Warn("no captured payment to refund", "order_id", orderID)
		return decimal.Zero, sf.NewError(sf.KindPayment, "payment_failed",
			"No captured payment was found for this order, so it could not be refunded.")
	}
	pay.Status = domain.PaymentRefunded
	pay.UpdatedAt = p.now()
	return pay.Amount, nil
}

// Restore undoes a refund whose order update could not be completed.
func (p *payments) Restore(orderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pay, ok := p.ledger[orderID]; ok {
		pay.Status = domain.PaymentCaptured
	}
}

func (p *payments) Get(orderID string) (domain.Payment, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pay, ok := p.ledger[orderID]
	if !ok {
		return domain.Payment{}, false
	}
	return *pay, true
}
