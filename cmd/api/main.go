package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore/internal/asset"
	"bookstore/internal/config"
	"bookstore/internal/database"
	"bookstore/internal/handler"
	"bookstore/internal/notify"
	"bookstore/internal/payment"
	"bookstore/internal/repository"
	"bookstore/internal/router"
	"bookstore/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("gateway", cfg.Payment.Gateway).Msg("starting bookstore API server")

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
			return err
		}
	}

	// Initialize repositories
	bookRepo := repository.NewBookRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	gateway, err := payment.New(cfg.Payment, &http.Client{Timeout: cfg.Payment.Timeout()}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize payment gateway: %w", err)
	}

	notifier, err := notify.New(cfg.Notify, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close notifier")
		}
	}()

	// Cover images go to S3 when enabled, local disk otherwise
	store, err := asset.NewStore(ctx, cfg.Assets, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize asset store: %w", err)
	}

	// Initialize services
	bookService := service.NewBookService(bookRepo, logger)
	orderService := service.NewOrderService(orderRepo, bookRepo, logger)
	checkoutService := service.NewCheckoutService(
		orderService,
		orderRepo,
		gateway,
		notifier,
		cfg.Payment.ReuseWindow(),
		logger,
	)

	// Initialize router
	mux := router.New(router.Handlers{
		Books:    handler.NewBookHandler(bookService, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Payments: handler.NewPaymentHandler(checkoutService, cfg.Payment.FrontendURL, logger),
		Assets:   handler.NewAssetHandler(store, logger),
	}, router.Options{
		AdminCode:      cfg.Auth.AdminCode,
		AllowedOrigins: cfg.Auth.AllowedOrigins,
		UploadsDir:     cfg.Assets.LocalDir,
	}, logger)

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
