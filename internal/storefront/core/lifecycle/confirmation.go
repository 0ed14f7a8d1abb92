package lifecycle

import (
	"time"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

// Confirmation is the explicit step between asking for a destructive action
// and sending it. Operation shows which endpoint the action resolves to, so
// the prompt and the dispatch can never disagree.
type Confirmation struct {
	ID        string           `json:"id"`
	OrderID   string           `json:"orderId"`
	Command   domain.Command   `json:"command"`
	Operation domain.Operation `json:"operation"`
	Reason    string           `json:"reason,omitempty"`
	Prompt    string           `json:"prompt"`
	ExpiresAt time.Time        `json:"expiresAt"`
}
