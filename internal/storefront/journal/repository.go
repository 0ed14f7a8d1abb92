package journal

import "context"

// Repository persists journal entries. Save appends; rows are never updated.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
}

// Reader lists the rows recorded for an order, oldest first.
type Reader interface {
	ListByOrder(ctx context.Context, orderID string) ([]Entry, error)
}
