// Package app is an in-memory Checkout/Order Service used for local
// development and as the backend of the gateway's adapter tests. It enforces
// the same transition table as the storefront and answers illegal commands
// with a conflict.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	"github.com/jcmexdev/storefront-orders/internal/pkg/cache"
	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront-orders/internal/pkg/orderevents"
	sf "github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

const idempotencyTTL = 24 * time.Hour

// Options configures a Service. Cache defaults to an in-process cache; Events
// may be nil.
type Options struct {
	Catalog []domain.Product
	Cache   cache.Cache
	Events  orderevents.Publisher
	Now     func() time.Time
}

type Service struct {
	mu        sync.Mutex
	orders    map[string]*domain.Record
	carts     map[string]*sf.Cart
	addresses map[string][]sf.Address
	restock   map[string]map[string]struct{}
	catalog   map[string]domain.Product

	inventory *inventory
	payments  *payments
	idem      cache.Cache
	events    orderevents.Publisher
	now       func() time.Time
}

func NewService(opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemoryCacheWithClock("order", opts.Now)
	}
	s := &Service{
		orders:    make(map[string]*domain.Record),
		carts:     make(map[string]*sf.Cart),
		addresses: make(map[string][]sf.Address),
		restock:   make(map[string]map[string]struct{}),
		catalog:   make(map[string]domain.Product, len(opts.Catalog)),
		inventory: newInventory(opts.Catalog),
		payments:  newPayments(opts.Now),
		idem:      opts.Cache,
		events:    opts.Events,
		now:       opts.Now,
	}
	for _, p := range opts.Catalog {
		s.catalog[p.ID] = p
	}
	return s
}

// DefaultCatalog is the product list the development service starts with.
func DefaultCatalog() []domain.Product {
	return []domain.Product{
		{ID: "tee-classic", Name: "Classic Tee", Price: decimal.NewFromInt(499), Stock: map[string]int{"S": 10, "M": 10, "L": 10}},
		{ID: "denim-slim", Name: "Slim Denim", Price: decimal.RequireFromString("1299.50"), Stock: map[string]int{"30": 5, "32": 5}},
		{ID: "sneaker-run", Name: "Running Sneaker", Price: decimal.NewFromInt(2499), Stock: map[string]int{"8": 0, "9": 0}},
	}
}

func newOrderID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func notFound(id string) error {
	return sf.NewError(sf.KindNotFound, "order_not_found", fmt.Sprintf("Order %s was not found.", id))
}

// conflict turns a failed transition check into the error a client sees
// when its view of the order was out of date.
func conflict(err error) error {
	var e *sf.Error
	if errors.As(err, &e) {
		msg := e.Message
		if msg != "" {
			msg = strings.ToUpper(msg[:1]) + msg[1:] + "."
		}
		return sf.NewError(sf.KindConflict, e.Code, msg)
	}
	return sf.NewError(sf.KindConflict, "conflict", err.Error())
}

// lookupLocked returns the order if it exists and belongs to customer.
func (s *Service) lookupLocked(customer, id string) (*domain.Record, error) {
	rec, ok := s.orders[id]
	if !ok || rec.CustomerID != customer {
		return nil, notFound(id)
	}
	return rec, nil
}

func (s *Service) GetOrder(_ context.Context, customer, id string) (*sf.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.lookupLocked(customer, id)
	if err != nil {
		return nil, err
	}
	return rec.Order.Clone(), nil
}

// CreateFromCart turns the customer's cart into a pending online order and
// empties the cart.
func (s *Service) CreateFromCart(ctx context.Context, customer string, addr sf.AddressSnapshot) (string, error) {
	if err := addr.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.replayLocked(ctx, customer); ok {
		return id, nil
	}
	cart := s.carts[customer]
	if cart == nil || cart.IsEmpty() {
		return "", sf.Validationf(sf.CodeInvalidItem, "Your cart is empty.")
	}

	var items []sf.LineItem
	for _, l := range cart.Lines() {
		it, err := s.lineItemLocked(l.ProductID, l.Size, "", l.Quantity)
		if err != nil {
			return "", err
		}
		items = append(items, it)
	}

	id, err := s.placeLocked(ctx, customer, addr, items, step{
		name:    "clear_cart",
		execute: func(context.Context) error { cart.Clear(); return nil },
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// BuyNow places a single-item order without touching the cart.
func (s *Service) BuyNow(ctx context.Context, customer string, req sf.BuyNowRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.replayLocked(ctx, customer); ok {
		return id, nil
	}
	it, err := s.lineItemLocked(req.ProductID, req.Size, req.Color, req.Quantity)
	if err != nil {
		return "", err
	}
	return s.placeLocked(ctx, customer, req.Address, []sf.LineItem{it})
}

func (s *Service) lineItemLocked(productID, size, color string, qty int) (sf.LineItem, error) {
	p, ok := s.catalog[productID]
	if !ok {
		return sf.LineItem{}, sf.Validationf(sf.CodeInvalidItem, "Product %s does not exist.", productID)
	}
	return sf.LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Size:      size,
		Color:     color,
		Quantity:  qty,
		UnitPrice: p.Price,
	}, nil
}

// replayLocked returns the order created earlier with the same idempotency key.
func (s *Service) replayLocked(ctx context.Context, customer string) (string, bool) {
	key := interceptors.IdempotencyKey(ctx)
	if key == "" {
		return "", false
	}
	id, err := s.idem.Get(ctx, s.idem.GenerateKey("create", customer+":"+key))
	if err != nil {
		slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
		return "", false
	}
	if id == "" {
		return "", false
	}
	slog.InfoContext(ctx, "replaying order creation", "order_id", id, "idempotency_key", key)
	return id, true
}

func (s *Service) placeLocked(ctx context.Context, customer string, addr sf.AddressSnapshot, items []sf.LineItem, extra ...step) (string, error) {
	id := newOrderID()
	amount := decimal.Zero
	stock := make([]domain.StockItem, 0, len(items))
	for _, it := range items {
		amount = amount.Add(it.Subtotal())
		stock = append(stock, domain.StockItem{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity})
	}
	now := s.now()
	rec := &domain.Record{
		Order: &sf.Order{
			ID:            id,
			Status:        sf.StatusPending,
			PaymentMethod: sf.PaymentOnline,
			Amount:        decimal.NewNullDecimal(amount),
			Items:         items,
			Address:       addr,
			CreatedAt:     now,
		},
		CustomerID:     customer,
		IdempotencyKey: interceptors.IdempotencyKey(ctx),
		RequestID:      interceptors.RequestID(ctx),
		UpdatedAt:      now,
	}

	steps := append([]step{
		{
			name:       "reserve_stock",
			execute:    func(context.Context) error { return s.inventory.Reserve(id, stock) },
			compensate: func(context.Context) { s.inventory.Release(id) },
		},
		{
			name:       "persist_order",
			execute:    func(context.Context) error { s.orders[id] = rec; return nil },
			compensate: func(context.Context) { delete(s.orders, id) },
		},
	}, extra...)
	if err := runSteps(ctx, id, steps...); err != nil {
		return "", err
	}

	if rec.IdempotencyKey != "" {
		key := s.idem.GenerateKey("create", customer+":"+rec.IdempotencyKey)
		if err := s.idem.Set(ctx, key, id, idempotencyTTL); err != nil {
			slog.WarnContext(ctx, "failed to store idempotency key", "order_id", id, "error", err)
		}
	}
	slog.InfoContext(ctx, "order created",
		"order_id", id,
		"customer_id", customer,
		"amount", amount.StringFixed(2),
		"request_id", rec.RequestID,
	)
	return id, nil
}

// mutate runs change on the customer's order under the lock and publishes
// the resulting status change once the lock is released.
func (s *Service) mutate(ctx context.Context, customer, id string, change func(rec *domain.Record) error) (*sf.Order, error) {
	s.mu.Lock()
	rec, err := s.lookupLocked(customer, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return s.applyLocked(ctx, rec, change)
}

// applyLocked is entered with s.mu held and releases it.
func (s *Service) applyLocked(ctx context.Context, rec *domain.Record, change func(rec *domain.Record) error) (*sf.Order, error) {
	from := rec.Order.Status
	var fromReturn sf.ReturnStatus
	if rec.Order.Return != nil {
		fromReturn = rec.Order.Return.Status
	}

	if err := change(rec); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	rec.UpdatedAt = s.now()
	out := rec.Order.Clone()
	s.mu.Unlock()

	ev := orderevents.StatusChanged{OrderID: out.ID, From: from, To: out.Status, OccurredAt: rec.UpdatedAt}
	if out.Return != nil && out.Return.Status != fromReturn {
		ev.ReturnTo = string(out.Return.Status)
	}
	if ev.From != ev.To || ev.ReturnTo != "" {
		s.publish(ctx, ev)
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, ev orderevents.StatusChanged) {
	slog.InfoContext(ctx, "order status changed", "order_id", ev.OrderID, "from", ev.From, "to", ev.To, "return_status", ev.ReturnTo)
	if s.events == nil {
		return
	}
	if err := s.events.PublishStatus(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "failed to publish status change", "order_id", ev.OrderID, "error", err)
	}
}

func (s *Service) Cancel(ctx context.Context, customer, id string) (*sf.Order, error) {
	return s.mutate(ctx, customer, id, func(rec *domain.Record) error {
		t, err := sf.Resolve(rec.Order, sf.CommandCancel)
		if err != nil {
			return conflict(err)
		}
		if t.Operation != sf.OperationCancel {
			return sf.NewError(sf.KindConflict, "refund_required", "Orders paid online are cancelled through a refund.")
		}
		s.inventory.Release(rec.Order.ID)
		rec.Order.Status = t.To
		return nil
	})
}

func (s *Service) Refund(ctx context.Context, customer, id string) (*sf.Order, error) {
	return s.mutate(ctx, customer, id, func(rec *domain.Record) error {
		t, err := sf.Resolve(rec.Order, sf.CommandCancel)
		if err != nil {
			return conflict(err)
		}
		if t.Operation != sf.OperationRefund {
			return sf.NewError(sf.KindConflict, "refund_not_allowed", "Only orders paid online can be refunded.")
		}
		return runSteps(ctx, rec.Order.ID,
			step{
				name: "refund_payment",
				execute: func(context.Context) error {
					_, err := s.payments.Refund(rec.Order.ID)
					return err
				},
				compensate: func(context.Context) { s.payments.Restore(rec.Order.ID) },
			},
			step{
				name: "release_stock",
				execute: func(context.Context) error {
					s.inventory.Release(rec.Order.ID)
					rec.Order.Status = t.To
					return nil
				},
			},
		)
	})
}

func (s *Service) RequestReturn(ctx context.Context, customer, id, reason string) (*sf.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, sf.Validationf(sf.CodeReasonRequired, "A reason is required to request a return.")
	}
	return s.mutate(ctx, customer, id, func(rec *domain.Record) error {
		if _, err := sf.Resolve(rec.Order, sf.CommandRequestReturn); err != nil {
			return conflict(err)
		}
		rec.Order.Return = &sf.Return{Status: sf.ReturnRequested, Reason: reason, RequestedAt: s.now()}
		return nil
	})
}

func (s *Service) ConfirmPayment(ctx context.Context, customer, id, reference string) (*sf.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, sf.Validationf(sf.CodeReferenceRequired, "A payment reference is required.")
	}
	return s.mutate(ctx, customer, id, func(rec *domain.Record) error {
		t, err := sf.Resolve(rec.Order, sf.CommandConfirmPayment)
		if err != nil {
			return conflict(err)
		}
		if err := s.payments.Charge(rec.Order.ID, reference, rec.Order.Amount.Decimal); err != nil {
			return err
		}
		rec.Order.Status = t.To
		return nil
	})
}

// Advance moves an order forward the way fulfilment would, outside any
// customer command.
func (s *Service) Advance(ctx context.Context, id string, to sf.Status) (*sf.Order, error) {
	s.mu.Lock()
	rec, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return nil, notFound(id)
	}
	return s.applyLocked(ctx, rec, func(rec *domain.Record) error {
		o := rec.Order
		if !sf.CanAdvance(o.Status, to) {
			return sf.NewError(sf.KindConflict, "invalid_transition",
				fmt.Sprintf("Order %s cannot move from %s to %s.", o.ID, o.Status, to))
		}
		now := s.now()
		switch to {
		case sf.StatusShipped:
			o.Shipment = &sf.Shipment{
				Carrier:    "Delhivery",
				TrackingID: "TRK" + strings.ToUpper(uuid.NewString()[:8]),
				Status:     sf.ShipmentInTransit,
				ShippedAt:  &now,
				UpdatedAt:  &now,
			}
		case sf.StatusDelivered:
			if o.Shipment != nil {
				o.Shipment.Status = sf.ShipmentDelivered
				o.Shipment.UpdatedAt = &now
				o.Shipment.DeliveredAt = &now
			}
		case sf.StatusFailed:
			s.inventory.Release(o.ID)
		}
		o.Status = to
		return nil
	})
}

// AdvanceReturn moves an open return through its own workflow. A refunded
// return reverses the captured payment when there is one.
func (s *Service) AdvanceReturn(ctx context.Context, id string, to sf.ReturnStatus) (*sf.Order, error) {
	s.mu.Lock()
	rec, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return nil, notFound(id)
	}
	return s.applyLocked(ctx, rec, func(rec *domain.Record) error {
		o := rec.Order
		if o.Return == nil {
			return sf.NewError(sf.KindConflict, "no_return", fmt.Sprintf("Order %s has no return.", o.ID))
		}
		if !sf.CanReturnTransition(o.Return.Status, to) {
			return sf.NewError(sf.KindConflict, "invalid_transition",
				fmt.Sprintf("Return of %s cannot move from %s to %s.", o.ID, o.Return.Status, to))
		}
		if to == sf.ReturnRefunded {
			if pay, ok := s.payments.Get(o.ID); ok && pay.Status == domain.PaymentCaptured {
				if _, err := s.payments.Refund(o.ID); err != nil {
					return err
				}
			}
		}
		o.Return.Status = to
		return nil
	})
}
