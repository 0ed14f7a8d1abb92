package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGatewayDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "ORDER_TRANSPORT", "REQUEST_TIMEOUT", "VIEW_IDLE_TTL", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}

	c, err := LoadGateway()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, TransportHTTP, c.Transport)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, 30*time.Minute, c.ViewIdleTTL)
	assert.Empty(t, c.RedisAddr)
}

func TestLoadGatewayClampsTimeout(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"2s", 10 * time.Second},
		{"20s", 20 * time.Second},
		{"2m", 30 * time.Second},
		{"soon", 15 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("REQUEST_TIMEOUT", tt.raw)
			c, err := LoadGateway()
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.RequestTimeout)
		})
	}
}

func TestLoadGatewayRejectsUnknownTransport(t *testing.T) {
	t.Setenv("ORDER_TRANSPORT", "carrier-pigeon")
	_, err := LoadGateway()
	assert.Error(t, err)

	t.Setenv("ORDER_TRANSPORT", "grpc")
	c, err := LoadGateway()
	require.NoError(t, err)
	assert.Equal(t, TransportGRPC, c.Transport)
}

func TestLoadGatewayRejectsTinyIdleTTL(t *testing.T) {
	for _, raw := range []string{"1ns", "500ms", "0s", "-1m"} {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("VIEW_IDLE_TTL", raw)
			_, err := LoadGateway()
			assert.Error(t, err)
		})
	}

	t.Setenv("VIEW_IDLE_TTL", "1s")
	c, err := LoadGateway()
	require.NoError(t, err)
	assert.Equal(t, MinViewIdleTTL, c.ViewIdleTTL)
}

func TestLoadOrderService(t *testing.T) {
	t.Setenv("ORDER_ECHO", "false")
	t.Setenv("SEED_CUSTOMER", "asha")
	c, err := LoadOrderService()
	require.NoError(t, err)
	assert.False(t, c.Echo)
	assert.Equal(t, "asha", c.SeedCustomer)

	t.Setenv("ORDER_ECHO", "maybe")
	_, err = LoadOrderService()
	assert.Error(t, err)
}
