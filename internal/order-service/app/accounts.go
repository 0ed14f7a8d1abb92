package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	sf "github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

func (s *Service) cartLocked(customer string) *sf.Cart {
	c, ok := s.carts[customer]
	if !ok {
		c = sf.NewCart(nil)
		s.carts[customer] = c
	}
	return c
}

func (s *Service) GetCart(_ context.Context, customer string) []sf.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked(customer).Lines()
}

func (s *Service) SetCartItem(_ context.Context, customer string, line sf.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkVariantLocked(line.ProductID, line.Size); err != nil {
		return err
	}
	return s.cartLocked(customer).Set(line.CartKey, line.Quantity)
}

func (s *Service) RemoveCartItem(_ context.Context, customer string, key sf.CartKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked(customer).Set(key, 0)
}

func (s *Service) checkVariantLocked(productID, size string) error {
	p, ok := s.catalog[productID]
	if !ok {
		return sf.Validationf(sf.CodeInvalidItem, "Product %s does not exist.", productID)
	}
	if _, ok := p.Stock[size]; !ok {
		return sf.Validationf(sf.CodeInvalidItem, "%s is not sold in size %s.", p.Name, size)
	}
	return nil
}

func (s *Service) ListAddresses(_ context.Context, customer string) []sf.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sf.Address(nil), s.addresses[customer]...)
}

func (s *Service) CreateAddress(_ context.Context, customer string, a sf.Address) (sf.Address, error) {
	if err := a.Validate(); err != nil {
		return sf.Address{}, err
	}
	a.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[customer] = append(s.addresses[customer], a)
	return a, nil
}

func (s *Service) UpdateAddress(_ context.Context, customer string, a sf.Address) (sf.Address, error) {
	if err := a.Validate(); err != nil {
		return sf.Address{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	book := s.addresses[customer]
	for i := range book {
		if book[i].ID == a.ID {
			book[i] = a
			return a, nil
		}
	}
	return sf.Address{}, sf.NewError(sf.KindNotFound, "address_not_found", "Address was not found.")
}

func (s *Service) DeleteAddress(_ context.Context, customer, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	book := s.addresses[customer]
	for i := range book {
		if book[i].ID == id {
			s.addresses[customer] = append(book[:i], book[i+1:]...)
			return nil
		}
	}
	return sf.NewError(sf.KindNotFound, "address_not_found", "Address was not found.")
}

// SubscribeRestock records interest in a variant. Subscribing twice is not
// an error.
func (s *Service) SubscribeRestock(ctx context.Context, customer, productID, size, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkVariantLocked(productID, size); err != nil {
		return err
	}
	subs, ok := s.restock[customer]
	if !ok {
		subs = make(map[string]struct{})
		s.restock[customer] = subs
	}
	subs[strings.Join([]string{productID, size, color}, "|")] = struct{}{}
	slog.InfoContext(ctx, "restock subscription recorded",
		"customer_id", customer, "product_id", productID, "size", size, "color", color,
		"available", s.inventory.Available(productID, size))
	return nil
}

// RestockSubscriptions counts a customer's subscriptions.
func (s *Service) RestockSubscriptions(customer string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.restock[customer])
}

// Seed stores the demonstration orders for customer: a pending cash order,
// an order paid online and a delivered order.
func (s *Service) Seed(customer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	addr := sf.AddressSnapshot{
		Name: "Asha Rao", Line1: "12 MG Road", City: "Bengaluru",
		State: "Karnataka", Pincode: "560001", Phone: "9876543210",
	}
	hundred := decimal.NewFromInt(100)
	item := func(name string) []sf.LineItem {
		return []sf.LineItem{{ProductID: "tee-classic", Name: name, Size: "M", Quantity: 1, UnitPrice: hundred}}
	}
	delivered := now.Add(-48 * time.Hour)

	seed := []*sf.Order{
		{ID: "ORD-1", Status: sf.StatusPending, PaymentMethod: sf.PaymentCOD},
		{ID: "ORD-2", Status: sf.StatusPaid, PaymentMethod: sf.PaymentOnline},
		{ID: "ORD-3", Status: sf.StatusDelivered, PaymentMethod: sf.PaymentCOD, Shipment: &sf.Shipment{
			Carrier: "Delhivery", TrackingID: "TRK00000003", Status: sf.ShipmentDelivered,
			ShippedAt: &delivered, UpdatedAt: &delivered, DeliveredAt: &delivered,
		}},
	}
	for _, o := range seed {
		o.Amount = decimal.NewNullDecimal(hundred)
		o.Items = item("Classic Tee")
		o.Address = addr
		o.CreatedAt = now.Add(-72 * time.Hour)
		s.orders[o.ID] = &domain.Record{Order: o, CustomerID: customer, UpdatedAt: now}
	}
	if err := s.payments.Charge("ORD-2", "seed-payment", hundred); err != nil {
		panic(fmt.Sprintf("seed payment: %v", err))
	}
}
