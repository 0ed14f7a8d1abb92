// Package restock remembers which out-of-stock variants a user already asked
// to be notified about, so a repeated tap does not reach the backend again.
package restock

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jcmexdev/storefront-orders/internal/pkg/cache"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/ports"
)

const DefaultTTL = 30 * 24 * time.Hour

// Key identifies a product variant. Build it with NewKey.
type Key struct {
	ProductID string
	Size      string
	Color     string
}

// NewKey trims its parts and lower-cases size and color, which are matched
// without regard to case.
func NewKey(productID, size, color string) (Key, error) {
	k := Key{
		ProductID: strings.TrimSpace(productID),
		Size:      strings.ToLower(strings.TrimSpace(size)),
		Color:     strings.ToLower(strings.TrimSpace(color)),
	}
	if k.ProductID == "" || k.Size == "" {
		return Key{}, domain.Validationf(domain.CodeInvalidItem, "product and size are required")
	}
	return k, nil
}

// String is the canonical encoding. Each part is escaped so that no two
// distinct keys share an encoding.
func (k Key) String() string {
	return url.PathEscape(k.ProductID) + "/" + url.PathEscape(k.Size) + "/" + url.PathEscape(k.Color)
}

type Subscriptions struct {
	cache cache.Cache
	ttl   time.Duration
}

func New(c cache.Cache, ttl time.Duration) *Subscriptions {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Subscriptions{cache: c, ttl: ttl}
}

func (s *Subscriptions) cacheKey(subject string, k Key) string {
	return s.cache.GenerateKey("restock", url.PathEscape(subject)+"/"+k.String())
}

// IsSubscribed reports whether the user holds a live claim for k.
func (s *Subscriptions) IsSubscribed(ctx context.Context, sess ports.Session, k Key) (bool, error) {
	if sess == nil || !sess.IsAuthenticated() {
		return false, nil
	}
	v, err := s.cache.Get(ctx, s.cacheKey(sess.Subject(), k))
	if err != nil {
		return false, fmt.Errorf("restock lookup: %w", err)
	}
	return v != "", nil
}

// Subscribe claims k for the user and then registers it with the backend.
// A claim that already exists short-circuits with already set. When the
// backend refuses, the claim is released so the user can try again.
func (s *Subscriptions) Subscribe(ctx context.Context, sess ports.Session, notifier ports.RestockNotifier, k Key) (already bool, err error) {
	if sess == nil || !sess.IsAuthenticated() {
		return false, domain.NewError(domain.KindUnauthenticated, "unauthenticated", "Sign in to get restock alerts.")
	}
	key := s.cacheKey(sess.Subject(), k)

	claimed, err := s.cache.SetIfAbsent(ctx, key, time.Now().UTC().Format(time.RFC3339), s.ttl)
	if err != nil {
		return false, fmt.Errorf("restock claim: %w", err)
	}
	if !claimed {
		return true, nil
	}

	if err := notifier.SubscribeRestock(ctx, k.ProductID, k.Size, k.Color); err != nil {
		if delErr := s.cache.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			return false, fmt.Errorf("%w (releasing claim: %v)", err, delErr)
		}
		return false, err
	}
	return false, nil
}
