package restock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/pkg/cache"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/restock"
	"github.com/jcmexdev/storefront-orders/internal/storefront/session"
)

type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) SubscribeRestock(context.Context, string, string, string) error {
	n.calls++
	return n.err
}

func TestKeyEncodingIsUnambiguous(t *testing.T) {
	a, err := restock.NewKey("tee/1", "m", "")
	require.NoError(t, err)
	b, err := restock.NewKey("tee", "1/m", "")
	require.NoError(t, err)
	assert.NotEqual(t, a.String(), b.String())

	c, err := restock.NewKey(" tee ", "M", "Black")
	require.NoError(t, err)
	d, err := restock.NewKey("tee", "m", "black")
	require.NoError(t, err)
	assert.Equal(t, c, d)

	_, err = restock.NewKey("tee", " ", "black")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSubscribeOnlyOnce(t *testing.T) {
	subs := restock.New(cache.NewMemoryCache("gateway"), 0)
	n := &countingNotifier{}
	alice := session.New("alice")
	k, _ := restock.NewKey("sneaker-run", "9", "black")
	ctx := context.Background()

	already, err := subs.Subscribe(ctx, alice, n, k)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = subs.Subscribe(ctx, alice, n, k)
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, 1, n.calls)

	ok, err := subs.IsSubscribed(ctx, alice, k)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = subs.IsSubscribed(ctx, session.New("bob"), k)
	assert.False(t, ok, "claims are per user")
}

func TestFailedSubscribeReleasesClaim(t *testing.T) {
	subs := restock.New(cache.NewMemoryCache("gateway"), 0)
	n := &countingNotifier{err: domain.NewError(domain.KindNetwork, "unreachable", "down")}
	alice := session.New("alice")
	k, _ := restock.NewKey("sneaker-run", "9", "")

	_, err := subs.Subscribe(context.Background(), alice, n, k)
	assert.True(t, errors.Is(err, domain.ErrNetwork))

	n.err = nil
	already, err := subs.Subscribe(context.Background(), alice, n, k)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, 2, n.calls)
}

func TestSubscribeNeedsSession(t *testing.T) {
	subs := restock.New(cache.NewMemoryCache("gateway"), 0)
	n := &countingNotifier{}
	k, _ := restock.NewKey("sneaker-run", "9", "")

	_, err := subs.Subscribe(context.Background(), session.Anonymous(), n, k)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
	assert.Zero(t, n.calls)
}
