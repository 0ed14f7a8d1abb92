package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/jcmexdev/storefront-orders/internal/config"
	"github.com/jcmexdev/storefront-orders/internal/order-service/app"
	"github.com/jcmexdev/storefront-orders/internal/pkg/cache"
	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront-orders/internal/pkg/orderevents"
	"github.com/jcmexdev/storefront-orders/internal/pkg/orderrpc"
	"github.com/jcmexdev/storefront-orders/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadOrderService()
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

	opts := app.Options{Cache: cache.New(cfg.RedisAddr, "order")}
	if cfg.KafkaBrokers != "" {
		producer := orderevents.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		opts.Events = producer
		slog.Info("publishing status changes", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	svc := app.NewService(opts)
	if cfg.SeedCustomer != "" {
		svc.Seed(cfg.SeedCustomer)
		slog.Info("seeded demonstration orders", "customer", cfg.SeedCustomer)
	}

	grpcAddr := ":" + cfg.GRPCPort
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		slog.Error("failed to listen", "addr", grpcAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.TraceServerInterceptor()),
	)
	orderrpc.RegisterServer(grpcServer, app.NewOrderServer(svc, cfg.Echo))

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           app.NewRouter(svc, cfg.Echo),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("order service gRPC running", "addr", grpcAddr)
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("failed to serve gRPC", "error", err)
			stop()
		}
	}()
	go func() {
		slog.Info("order service HTTP running", "addr", httpServer.Addr, "echo", cfg.Echo)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to serve HTTP", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
}
