package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	sf "github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

type stockKey struct {
	productID string
	size      string
}

type inventory struct {
	mu           sync.Mutex
	stock        map[stockKey]int
	reservations map[string][]domain.StockItem
}

func newInventory(products []domain.Product) *inventory {
	inv := &inventory{
		stock:        make(map[stockKey]int),
		reservations: make(map[string][]domain.StockItem),
	}
	for _, p := range products {
		for size, qty := range p.Stock {
			inv.stock[stockKey{p.ID, size}] = qty
		}
	}
	return inv
}

// Reserve takes all items or none.
func (i *inventory) Reserve(orderID string, items []domain.StockItem) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, it := range items {
		current, ok := i.stock[stockKey{it.ProductID, it.Size}]
		if !ok {
			return sf.NewError(sf.KindValidation, sf.CodeInvalidItem,
				fmt.Sprintf("%s is not available in size %s.", it.ProductID, it.Size))
		}
		if current < it.Quantity {
			slog.Info("insufficient stock", "product_id", it.ProductID, "size", it.Size,
				"available", current, "requested", it.Quantity)
			return sf.NewError(sf.KindConflict, "out_of_stock",
				fmt.Sprintf("Only %d left of %s in size %s.", current, it.ProductID, it.Size))
		}
	}
	for _, it := range items {
		i.stock[stockKey{it.ProductID, it.Size}] -= it.Quantity
	}
	i.reservations[orderID] = items
	return nil
}

// Release returns the order's reservation to stock. Releasing twice is a no-op.
func (i *inventory) Release(orderID string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	items, ok := i.reservations[orderID]
	if !ok {
		slog.Warn("no reservation to release", "order_id", orderID)
		return
	}
	for _, it := range items {
		i.stock[stockKey{it.ProductID, it.Size}] += it.Quantity
	}
	delete(i.reservations, orderID)
}

func (i *inventory) Available(productID, size string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stock[stockKey{productID, size}]
}
