// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/lifecycle"
)

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Gateway configures cmd/storefront-gateway.
type Gateway struct {
	Port              string
	ServiceName       string
	LogLevel          string
	OrderServiceURL   string
	OrderGRPCAddr     string
	Transport         string
	RequestTimeout    time.Duration
	ViewIdleTTL       time.Duration
	RedisAddr         string
	JournalPath       string
	KafkaBrokers      string
	KafkaTopic        string
	KafkaGroupID      string
	ContentServiceURL string
	RestockTTL        time.Duration
}

// OrderService configures cmd/order-service.
type OrderService struct {
	HTTPPort     string
	GRPCPort     string
	ServiceName  string
	LogLevel     string
	RedisAddr    string
	KafkaBrokers string
	KafkaTopic   string
	Echo         bool
	SeedCustomer string
}

// MinViewIdleTTL is the shortest idle lifetime accepted for an order view.
const MinViewIdleTTL = time.Second

func LoadGateway() (Gateway, error) {
	c := Gateway{
		Port:              getEnv("PORT", "8080"),
		ServiceName:       getEnv("OTEL_SERVICE_NAME", "storefront-gateway"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		OrderServiceURL:   getEnv("ORDER_SERVICE_URL", "http://localhost:8081"),
		OrderGRPCAddr:     getEnv("ORDER_SERVICE_GRPC_ADDR", "localhost:9090"),
		Transport:         getEnv("ORDER_TRANSPORT", TransportHTTP),
		RequestTimeout:    lifecycle.ClampTimeout(getDuration("REQUEST_TIMEOUT", lifecycle.DefaultTimeout)),
		ViewIdleTTL:       getDuration("VIEW_IDLE_TTL", 30*time.Minute),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		JournalPath:       getEnv("JOURNAL_PATH", ""),
		KafkaBrokers:      getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "order-status"),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "storefront-gateway"),
		ContentServiceURL: getEnv("CONTENT_SERVICE_URL", ""),
		RestockTTL:        getDuration("RESTOCK_TTL", 30*24*time.Hour),
	}
	if c.Transport != TransportHTTP && c.Transport != TransportGRPC {
		return Gateway{}, fmt.Errorf("config: ORDER_TRANSPORT must be %q or %q, got %q", TransportHTTP, TransportGRPC, c.Transport)
	}
	if c.ViewIdleTTL < MinViewIdleTTL {
		return Gateway{}, fmt.Errorf("config: VIEW_IDLE_TTL must be at least %s, got %s", MinViewIdleTTL, c.ViewIdleTTL)
	}
	return c, nil
}

func LoadOrderService() (OrderService, error) {
	echo, err := strconv.ParseBool(getEnv("ORDER_ECHO", "true"))
	if err != nil {
		return OrderService{}, fmt.Errorf("config: ORDER_ECHO: %w", err)
	}
	return OrderService{
		HTTPPort:     getEnv("PORT", "8081"),
		GRPCPort:     getEnv("GRPC_PORT", "9090"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "order-service"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "order-status"),
		Echo:         echo,
		SeedCustomer: getEnv("SEED_CUSTOMER", "demo"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDuration accepts Go duration strings. Bad values fall back with a warning.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("ignoring invalid duration", "key", key, "value", raw, "error", err)
		return fallback
	}
	return d
}
