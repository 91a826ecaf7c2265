package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/api_gateway"
	"github.com/medichain-payments/internal/config"
	"github.com/medichain-payments/internal/data/mongo"
	"github.com/medichain-payments/internal/data/postgres"
	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/fees"
	"github.com/medichain-payments/internal/logger"
	"github.com/medichain-payments/internal/payments"
	"github.com/medichain-payments/internal/platform/chain"
	"github.com/medichain-payments/internal/platform/custody"
	"github.com/medichain-payments/internal/platform/persistence"
	"github.com/medichain-payments/internal/platform/ratefeed"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Initialize chain access
	chainClient, err := chain.NewEthClient(appCtx, log, &cfg.Chain)
	if err != nil {
		log.Error("Failed to initialize chain RPC clients", "error", err)
		os.Exit(1)
	}

	tokenContracts := make(map[string]map[string]string, len(cfg.Chain.Networks))
	for name, network := range cfg.Chain.Networks {
		tokenContracts[name] = network.TokenContracts
	}
	registry := chain.NewTokenRegistry(tokenContracts)

	verifier := payments.NewVerifier(log, chainClient, registry, cfg.Chain.Networks)
	rateProvider := ratefeed.NewProvider(log, redisClient, &cfg.RateFeed)
	custodyClient := custody.NewClient(log, &cfg.Custody)

	// Fee and withdrawal policy
	platformFeePercent, err := decimal.NewFromString(cfg.Fees.PlatformFeePercent)
	if err != nil {
		log.Error("Invalid platform fee percent", "value", cfg.Fees.PlatformFeePercent, "error", err)
		os.Exit(1)
	}
	feeSchedule := fees.NewSchedule(platformFeePercent, nil)

	minimums := make(map[shared.Currency]decimal.Decimal, len(cfg.Withdrawals.MinimumAmounts))
	for currency, amount := range cfg.Withdrawals.MinimumAmounts {
		minimum, err := decimal.NewFromString(amount)
		if err != nil {
			log.Error("Invalid minimum withdrawal amount", "currency", currency, "value", amount, "error", err)
			os.Exit(1)
		}
		minimums[shared.Currency(currency)] = minimum
	}

	// Initialize repositories
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	earningsRepo := postgres.NewEarningsRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	historyRepo := mongo.NewHistoryRepository(log, mongoDB.Database())

	// Initialize the payment service
	paymentService := payments.NewService(payments.Deps{
		DB:           postgresDB,
		Transactions: transactionRepo,
		Earnings:     earningsRepo,
		History:      historyRepo,
		Outbox:       outboxRepo,
		Verifier:     verifier,
		Rates:        rateProvider,
		Transferor:   custodyClient,
		Fees:         feeSchedule,
		Withdrawals: payments.WithdrawalPolicy{
			Minimums: minimums,
			Cooldown: cfg.Withdrawals.Cooldown,
		},
		Retry: payments.RetryPolicy{
			MaxAttempts: cfg.Chain.MaxRetries,
			Backoff:     cfg.Chain.RetryBackoff,
		},
		Logger: log,
	})

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, paymentService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	chainClient.Close()
	postgresDB.Close()

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis connection", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
