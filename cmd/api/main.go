package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"orderdesk/internal/cache"
	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/discount"
	"orderdesk/internal/events"
	"orderdesk/internal/handler"
	"orderdesk/internal/payment"
	"orderdesk/internal/repository"
	"orderdesk/internal/router"
	"orderdesk/internal/service"

	"github.com/rs/zerolog"
)

const serviceName = "orderdesk"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger, serviceName)
	logger.Info().Msg("starting orderdesk API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	catalogue, err := newCatalogue(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize discount catalogue: %w", err)
	}
	defer catalogue.Close()

	gateway, err := newGateway(cfg.Payments, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize payment gateway: %w", err)
	}

	orderCache, closeCache, err := newOrderCache(ctx, cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize order cache: %w", err)
	}
	defer closeCache()

	publisher, err := newPublisher(cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, catalogue, gateway, orderCache, publisher, logger)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)

	// Initialize router
	mux := router.New(productHandler, orderHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newCatalogue loads the discount catalogue from S3 with a local fallback.
func newCatalogue(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (discount.Catalogue, error) {
	fileLoader := discount.NewFileLoader(logger)

	var s3Loader discount.Loader
	if cfg.S3.Enabled {
		var err error
		s3Loader, err = discount.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
			s3Loader = nil
		}
	} else {
		logger.Info().Msg("using local file system for discount files (S3 disabled)")
	}

	paths := make([]string, len(cfg.Discounts.Files))
	for i, name := range cfg.Discounts.Files {
		paths[i] = filepath.Join(cfg.Discounts.Dir, name)
	}

	loader := discount.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger)
	return discount.NewCatalogue(ctx, paths, loader, logger)
}

func newGateway(cfg config.PaymentsConfig, logger zerolog.Logger) (payment.Gateway, error) {
	if cfg.Provider == "stripe" {
		return payment.NewStripeGateway(cfg.StripeSecretKey, logger)
	}
	logger.Warn().Msg("using sandbox payment gateway; refunds are not sent to a provider")
	return payment.NewSandboxGateway(logger), nil
}

func newOrderCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (cache.OrderCache, func(), error) {
	if !cfg.Enabled {
		return cache.NewNoop(), func() {}, nil
	}
	client, err := cache.Connect(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Str("addr", cfg.Addr).Dur("ttl", cfg.TTL).Msg("order cache enabled")
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
	return cache.NewRedisOrderCache(client, serviceName, cfg.TTL, logger), closeFn, nil
}

func newPublisher(cfg config.EventsConfig, logger zerolog.Logger) (events.Publisher, error) {
	if !cfg.Enabled {
		return events.NewNoop(), nil
	}
	logger.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.Topic).Msg("event publishing enabled")
	publisher, err := events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, logger)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}
