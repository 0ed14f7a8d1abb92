package lifecycle

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/ports"
)

// OrderServiceFactory binds the order service to a caller's session.
type OrderServiceFactory func(s ports.Session) ports.OrderService

// registryKey ties a view to the credential it was opened with. The subject
// of a token is not verified by the gateway, so it cannot be the key.
type registryKey struct {
	credential string
	orderID    string
}

func credentialOf(s ports.Session) string {
	if s == nil || s.Token() == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.Token()))
	return hex.EncodeToString(sum[:])
}

// Registry keeps the open views of the gateway, one per (credential, order).
type Registry struct {
	factory OrderServiceFactory
	opts    Options

	mu    sync.Mutex
	views map[registryKey]*View
}

func NewRegistry(factory OrderServiceFactory, opts Options) *Registry {
	return &Registry{
		factory: factory,
		opts:    opts.withDefaults(),
		views:   make(map[registryKey]*View),
	}
}

// Open returns the caller's view of orderID, creating it on first use. Views
// are never shared between tokens, even when they name the same subject; a
// renewed token starts from an empty view and the old one is pruned.
func (r *Registry) Open(s ports.Session, orderID string) *View {
	key := registryKey{credential: credentialOf(s), orderID: orderID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.views[key]; ok {
		v.touch()
		return v
	}
	v := NewView(orderID, r.factory(s), s, r.opts)
	r.views[key] = v
	return v
}

// ForOrder returns every open view of orderID across users.
func (r *Registry) ForOrder(orderID string) []*View {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*View
	for k, v := range r.views {
		if k.orderID == orderID {
			out = append(out, v)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Prune drops views unused for longer than idle. Views with an action in
// flight are kept.
func (r *Registry) Prune(idle time.Duration) int {
	now := r.opts.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for k, v := range r.views {
		since, busy := v.idleSince(now)
		if !busy && since > idle {
			delete(r.views, k)
			removed++
		}
	}
	return removed
}
