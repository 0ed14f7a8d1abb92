// Package prepaint keeps short-lived copies of catalog and CMS documents so a
// page can render something before the authoritative fetch completes. The
// copies are advisory and never drive an order decision.
package prepaint

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/storefront-orders/internal/pkg/cache"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

// Name is one of the fixed cache slots.
type Name string

const (
	ProductList Name = "product_list"
	HeroMedia   Name = "hero_media"
	CMSBanners  Name = "cms_banners"
	CMSStories  Name = "cms_stories"
)

var ttls = map[Name]time.Duration{
	ProductList: 5 * time.Minute,
	HeroMedia:   time.Hour,
	CMSBanners:  15 * time.Minute,
	CMSStories:  15 * time.Minute,
}

func ParseName(s string) (Name, error) {
	n := Name(s)
	if _, ok := ttls[n]; !ok {
		return "", domain.NewError(domain.KindNotFound, "unknown_prepaint", fmt.Sprintf("No cached content is named %q.", s))
	}
	return n, nil
}

func (n Name) TTL() time.Duration { return ttls[n] }

// Fetcher loads a document from the content service.
type Fetcher interface {
	Fetch(ctx context.Context, name Name) (json.RawMessage, error)
}

// Entry is a document and where it came from.
type Entry struct {
	Name   Name            `json:"name"`
	Value  json.RawMessage `json:"value"`
	Cached bool            `json:"cached"`
}

type Store struct {
	cache   cache.Cache
	fetcher Fetcher
}

// New returns a store over c. fetcher may be nil, in which case misses are
// reported as not found.
func New(c cache.Cache, fetcher Fetcher) *Store {
	return &Store{cache: c, fetcher: fetcher}
}

func (s *Store) key(n Name) string {
	return s.cache.GenerateKey("prepaint", string(n))
}

// Get returns the cached document or, on a miss, fetches and stores it.
// A broken cache is logged and bypassed.
func (s *Store) Get(ctx context.Context, n Name) (Entry, error) {
	raw, err := s.cache.Get(ctx, s.key(n))
	if err != nil {
		slog.WarnContext(ctx, "prepaint cache read failed", "name", n, "error", err)
	} else if raw != "" && json.Valid([]byte(raw)) {
		return Entry{Name: n, Value: json.RawMessage(raw), Cached: true}, nil
	}

	if s.fetcher == nil {
		return Entry{}, domain.NewError(domain.KindNotFound, "prepaint_miss", fmt.Sprintf("Nothing is cached for %s.", n))
	}
	v, err := s.fetcher.Fetch(ctx, n)
	if err != nil {
		return Entry{}, err
	}
	if err := s.Put(ctx, n, v); err != nil {
		slog.WarnContext(ctx, "prepaint cache write failed", "name", n, "error", err)
	}
	return Entry{Name: n, Value: v}, nil
}

// Put stores a JSON document under n for the slot's TTL.
func (s *Store) Put(ctx context.Context, n Name, v json.RawMessage) error {
	if !json.Valid(v) {
		return domain.Validationf("invalid_json", "%s is not valid JSON", n)
	}
	return s.cache.Set(ctx, s.key(n), []byte(v), n.TTL())
}
