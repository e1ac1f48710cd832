package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/tokenmeter/internal/config"
	"github.com/davidbz/tokenmeter/internal/domain"
	"github.com/davidbz/tokenmeter/internal/http"
	"github.com/davidbz/tokenmeter/internal/http/middleware"
	"github.com/davidbz/tokenmeter/internal/ledger"
	"github.com/davidbz/tokenmeter/internal/observability"
	"github.com/davidbz/tokenmeter/internal/pricing"
	"github.com/davidbz/tokenmeter/internal/telemetry"
	"github.com/davidbz/tokenmeter/internal/tokenizer"
)

func main() {
	container := buildContainer()

	err := container.Invoke(run)
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func run(
	logger *zap.Logger,
	serverCfg *config.ServerConfig,
	catalogCfg *config.CatalogConfig,
	store domain.Store,
	catalog *domain.PriceCatalog,
	tokens *domain.TokenCounter,
	tracing *telemetry.Tracing,
	server *http.Server,
) error {
	defer func() { _ = logger.Sync() }()
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close ledger", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pricing.Seed(ctx, catalog, catalogCfg.File); err != nil {
		return err
	}
	go catalog.Run(ctx, catalogCfg.RefreshInterval)

	for _, model := range []string{"gpt-4o", "gpt-4"} {
		if encoder, ok := tokens.EncoderFor(model).(*tokenizer.Encoder); ok {
			if err := encoder.Warm(); err != nil {
				logger.Warn("failed to preload encoding", zap.String("encoding", encoder.Name()), zap.Error(err))
			}
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(serverCfg.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", zap.Error(err))
	}

	return nil
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(func(logger *zap.Logger) domain.EventPublisher {
		return observability.NewEventBus(logger)
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}
	if err := container.Provide(telemetry.InitTracer); err != nil {
		log.Fatalf("Failed to provide tracing: %v", err)
	}
	if err := container.Provide(func(t *telemetry.Tracing) trace.Tracer {
		return t.Tracer()
	}); err != nil {
		log.Fatalf("Failed to provide tracer: %v", err)
	}

	// Storage. The logger argument orders InitLogger before Open logs.
	if err := container.Provide(func(cfg *config.LedgerConfig, _ *zap.Logger) (domain.Store, error) {
		return ledger.Open(context.Background(), cfg)
	}); err != nil {
		log.Fatalf("Failed to provide ledger: %v", err)
	}
	if err := container.Provide(func(store domain.Store) domain.LedgerStore {
		return store
	}); err != nil {
		log.Fatalf("Failed to provide ledger store: %v", err)
	}
	if err := container.Provide(func(store domain.Store) domain.PriceStore {
		return store
	}); err != nil {
		log.Fatalf("Failed to provide price store: %v", err)
	}

	// Domain Services
	if err := container.Provide(domain.NewPriceCatalog); err != nil {
		log.Fatalf("Failed to provide price catalog: %v", err)
	}
	if err := container.Provide(func(catalog *domain.PriceCatalog) domain.CostCalculator {
		return domain.NewStandardCostCalculator(catalog)
	}); err != nil {
		log.Fatalf("Failed to provide cost calculator: %v", err)
	}
	if err := container.Provide(func(events domain.EventPublisher) *domain.TokenCounter {
		return domain.NewTokenCounter(tokenizer.NewWideEncoder(), tokenizer.NewLegacyEncoder(), events)
	}); err != nil {
		log.Fatalf("Failed to provide token counter: %v", err)
	}
	if err := container.Provide(domain.NewBillingEngine); err != nil {
		log.Fatalf("Failed to provide billing engine: %v", err)
	}
	if err := container.Provide(domain.NewUserRegistry); err != nil {
		log.Fatalf("Failed to provide user registry: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
