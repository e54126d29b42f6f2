package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"luckybit/config"
	"luckybit/currency"
	"luckybit/database"
	"luckybit/domain/interfaces"
	"luckybit/domain/services"
	"luckybit/infrastructure"
	"luckybit/infrastructure/ws"
	"luckybit/repository"
	"luckybit/server"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting luckybit...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize Redis (optional, backs the last-good rate snapshot)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unavailable, continuing without it: %v", err)
			redisClient = nil
		} else {
			log.Println("Redis connection established successfully")
		}
	}

	// Initialize event publishing
	var publisher interfaces.EventPublisher
	var natsClient *infrastructure.NATSClient
	if cfg.NATSEnabled {
		log.Println("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher, err = infrastructure.NewNATSEventPublisher(natsClient)
		if err != nil {
			return fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		log.Println("NATS connection established successfully")
	} else {
		publisher = infrastructure.NewNoopEventPublisher()
	}

	// Initialize rate service with background refresh
	rateOpts := []currency.Option{currency.WithPublisher(publisher)}
	if redisClient != nil {
		rateOpts = append(rateOpts, currency.WithRedis(redisClient))
	}
	rates := currency.NewRateService(rateOpts...)
	rates.Start(ctx, cfg.RateRefreshEvery)

	// Initialize repositories and unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db)
	accounts := repository.NewAccountRepository(db)
	entries := repository.NewLedgerRepository(db)
	history := repository.NewGameHistoryRepository(db)

	// Initialize websocket hub and domain services
	hub := ws.NewHub()
	locks := services.NewAccountLocks()
	ledger := services.NewLedgerService(uowFactory, rates, hub, publisher, locks)
	games := services.NewGameService(uowFactory, rates, hub, publisher, locks)

	// Initialize HTTP server
	handler := server.NewHandler(ledger, games, rates, accounts, entries, history, hub)
	srv := server.New(cfg.ListenAddr, handler, cfg.AllowedHosts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	log.Printf("Server is running in %s mode...", cfg.Environment)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	rates.Stop()

	if natsClient != nil {
		natsClient.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
