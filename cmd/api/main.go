package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/JeonghakHeo/Proshop-again/internal/config"
	"github.com/JeonghakHeo/Proshop-again/internal/database"
	"github.com/JeonghakHeo/Proshop-again/internal/handler"
	"github.com/JeonghakHeo/Proshop-again/internal/notification"
	"github.com/JeonghakHeo/Proshop-again/internal/pricing"
	"github.com/JeonghakHeo/Proshop-again/internal/repository"
	"github.com/JeonghakHeo/Proshop-again/internal/router"
	"github.com/JeonghakHeo/Proshop-again/internal/service"
)

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
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting proshop API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	// Resolve pricing rules: the store-wide env config is the baseline, an
	// external rules document overrides it when enabled.
	rules, err := loadRules(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load pricing rules: %w", err)
	}

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, rules, notification.NewLogSink(logger), logger)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	configHandler := handler.NewConfigHandler(cfg.Auth.PaymentClientID, logger)

	// Initialize router
	mux := router.New(productHandler, orderHandler, configHandler, cfg.Auth.APIKey, logger)

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

// loadRules resolves the pricing rules the order service charges with. The
// env-configured store rules apply unless an external rules document is
// enabled; a document that fails to load at startup is fatal rather than
// silently falling back to different prices.
func loadRules(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (pricing.Rules, error) {
	rules := pricing.Rules{
		Currency:              cfg.Store.Currency,
		TaxRate:               cfg.Store.TaxRate,
		ShippingFee:           cfg.Store.ShippingFee,
		FreeShippingThreshold: cfg.Store.FreeShippingThreshold,
	}

	if !cfg.Rules.Enabled {
		if err := rules.Validate(); err != nil {
			return pricing.Rules{}, err
		}
		logger.Info().
			Str("currency", rules.Currency).
			Str("tax_rate", rules.TaxRate.String()).
			Msg("using store pricing rules from environment")
		return rules, nil
	}

	var loader pricing.Loader
	switch cfg.Rules.Source {
	case "s3":
		var err error
		loader, err = pricing.NewS3Loader(ctx, cfg.Rules.S3Bucket, cfg.Rules.S3Region, cfg.Rules.S3Key, logger)
		if err != nil {
			return pricing.Rules{}, fmt.Errorf("failed to initialise S3 rules loader: %w", err)
		}
	default:
		loader = pricing.NewFileLoader(cfg.Rules.FilePath, logger)
	}

	loaded, err := loader.Load(ctx)
	if err != nil {
		return pricing.Rules{}, err
	}

	logger.Info().
		Str("source", cfg.Rules.Source).
		Str("currency", loaded.Currency).
		Msg("loaded pricing rules document")
	return *loaded, nil
}
