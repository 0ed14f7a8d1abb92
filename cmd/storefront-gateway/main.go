package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcmexdev/storefront-orders/internal/config"
	"github.com/jcmexdev/storefront-orders/internal/pkg/cache"
	"github.com/jcmexdev/storefront-orders/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/lifecycle"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/prepaint"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/restock"
	"github.com/jcmexdev/storefront-orders/internal/storefront/infra/adapters/orderapi"
	"github.com/jcmexdev/storefront-orders/internal/storefront/infra/adapters/ordergrpc"
	"github.com/jcmexdev/storefront-orders/internal/storefront/infra/events"
	"github.com/jcmexdev/storefront-orders/internal/storefront/infra/httpx"
	"github.com/jcmexdev/storefront-orders/internal/storefront/journal"
	"github.com/jcmexdev/storefront-orders/internal/storefront/journal/sqlite"
)

func main() {
	cfg, err := config.LoadGateway()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, telemetry.TracerConfigFromEnv(cfg.ServiceName))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	c := cache.New(cfg.RedisAddr, "gateway")
	if p, ok := c.(interface{ Ping(context.Context) error }); ok {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := p.Ping(pingCtx); err != nil {
			slog.Warn("redis unreachable, cache calls will fail until it is back", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
	}

	var (
		repo    journal.Repository
		history journal.Reader
	)
	if cfg.JournalPath != "" {
		j, err := sqlite.Open(cfg.JournalPath)
		if err != nil {
			slog.Error("failed to open command journal", "path", cfg.JournalPath, "error", err)
			os.Exit(1)
		}
		defer j.Close()
		repo, history = j, j
	}

	rest := orderapi.New(cfg.OrderServiceURL, &http.Client{Timeout: lifecycle.MaxTimeout})
	orders := func(s ports.Session) ports.OrderService { return rest.WithSession(s) }
	if cfg.Transport == config.TransportGRPC {
		conn, err := ordergrpc.Dial(cfg.OrderGRPCAddr)
		if err != nil {
			slog.Error("could not connect to order service", "addr", cfg.OrderGRPCAddr, "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		rpc := ordergrpc.New(conn)
		orders = func(s ports.Session) ports.OrderService { return rpc.WithSession(s) }
	}

	views := lifecycle.NewRegistry(orders, lifecycle.Options{
		Timeout: cfg.RequestTimeout,
		Journal: repo,
	})
	go pruneViews(ctx, views, cfg.ViewIdleTTL)

	if cfg.KafkaBrokers != "" {
		events.StartConsumer(ctx, events.NewHandler(views, cfg.RequestTimeout), events.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		})
	}

	var fetcher prepaint.Fetcher
	if cfg.ContentServiceURL != "" {
		fetcher = prepaint.NewHTTPFetcher(cfg.ContentServiceURL, &http.Client{Timeout: cfg.RequestTimeout})
	}

	handler := httpx.NewHandler(httpx.Deps{
		Views:    views,
		History:  history,
		Orders:   orders,
		Accounts: func(s ports.Session) httpx.Accounts { return rest.WithSession(s) },
		Restock:  restock.New(c, cfg.RestockTTL),
		Prepaint: prepaint.New(c, fetcher),
		Timeout:  cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpx.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("storefront gateway running", "addr", srv.Addr, "transport", cfg.Transport)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
}

func pruneViews(ctx context.Context, views *lifecycle.Registry, idle time.Duration) {
	ticker := time.NewTicker(max(idle/2, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := views.Prune(idle); n > 0 {
				slog.Debug("pruned idle order views", "count", n, "open", views.Len())
			}
		}
	}
}
