/**
 * @description
 * This is the main entry point for the rewards-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * migrations and connection pool, external API clients, the message broker,
 * repositories, the core application service, and the HTTP server. It wires
 * everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/database, internal/store: Internal packages.
 * - pkg/extraction: Client for the receipt extraction API.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/toucanwin/rewards-service/internal/api"
	"github.com/toucanwin/rewards-service/internal/app"
	"github.com/toucanwin/rewards-service/internal/config"
	"github.com/toucanwin/rewards-service/internal/database"
	"github.com/toucanwin/rewards-service/internal/store"
	"github.com/toucanwin/rewards-service/pkg/extraction"
	rmrabbit "github.com/toucanwin/rewards-service/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.InternalAPIKey) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"internal api key must be configured\" env=INTERNAL_API_KEY")
	}

	log.Printf("level=info component=bootstrap msg=\"starting rewards-service\" port=%s", cfg.ServerPort)

	// Run schema migrations before taking traffic.
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"migrations failed\" err=%v", err)
	}
	log.Println("level=info component=bootstrap msg=\"migrations applied\"")

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Pool sizing follows the sibling services so the database sees a
	// consistent load profile across the platform.
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish events. This service only
	// publishes, so a missing broker degrades to a no-op fallback.
	var producer rmrabbit.Publisher
	rabbitProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		producer = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the client for the receipt extraction API. Missing config
	// disables image submissions; structured submissions still work.
	var extractor app.Extractor
	if strings.TrimSpace(cfg.ExtractionAPIBaseURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"extraction api not configured; image receipts disabled\" env=EXTRACTION_API_BASE_URL")
	} else {
		extractor = extraction.NewClient(cfg.ExtractionAPIBaseURL, cfg.ExtractionAPIKey)
	}

	var redisClient *redis.Client
	if cfg.ReceiptRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; receipt rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; receipt rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; receipt rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	rewardsService := app.NewService(repository, extractor, producer, app.Options{
		DailyBonusBasePoints: cfg.DailyBonusBasePoints,
		FraudRejectThreshold: cfg.FraudRejectThreshold,
		DailyCapCents:        cfg.DailyTotalCapCents,
		LedgerDisplayLimit:   cfg.LedgerDisplayLimit,
	})

	var limiter *app.RedisReceiptRateLimiter
	if redisClient != nil {
		limiter = app.NewRedisReceiptRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
	}

	// Initialize the API handlers.
	rewardsHandlers := api.NewRewardsHandlers(rewardsService, limiter, cfg.ReceiptRateLimitPerMinute)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/rewards", api.RewardsRoutes(rewardsHandlers, cfg.ClerkJWKSURL, cfg.InternalAPIKey))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
