/**
 * @description
 * This is the main entry point for the transfer-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the message broker, the repository, the core application service,
 * the settlement worker, and the HTTP server. It wires everything together and
 * starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/wematrust/transfer-service/internal/api"
	"github.com/wematrust/transfer-service/internal/app"
	"github.com/wematrust/transfer-service/internal/config"
	"github.com/wematrust/transfer-service/internal/store"
	"github.com/wematrust/transfer-service/pkg/rabbitmq"
)

func main() {
	// Load a local .env file when present; environment variables still win.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url must be configured\" env=DATABASE_URL")
	}

	log.Printf("level=info component=bootstrap msg=\"starting transfer-service\" port=%s home_bank=%s", cfg.ServerPort, cfg.HomeBankID)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

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

	// Initialize the RabbitMQ producer to publish transfer events. The broker
	// being down must not keep transfers from processing, so fall back to a
	// no-op publisher.
	var events rabbitmq.Publisher
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		events = &rabbitmq.EventProducerFallback{}
	} else {
		defer producer.Close()
		events = producer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the data access layer and the core application service.
	repository := store.NewPostgresRepository(dbpool)
	transferService := app.NewService(
		repository,
		events,
		cfg.HomeBankID,
		time.Duration(cfg.SettlementDelaySeconds)*time.Second,
	)

	// Start the deferred settlement worker. Jobs are durable rows, so any
	// settlements that were due while the process was down are picked up on
	// the first sweep.
	settlementWorker := app.NewSettlementWorker(repository, events, cfg.SettlementSweepSchedule)
	if err := settlementWorker.Start(); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"settlement worker start failed\" err=%v", err)
	}

	// Set up the HTTP router and define the API routes.
	handlers := api.NewTransferHandlers(transferService)
	router := api.TransferRoutes(handlers, api.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins(),
		JWTSecret:      cfg.AuthJWTSecret,
	})

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)
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

	// Let any in-flight settlement sweep finish before exiting.
	<-settlementWorker.Stop().Done()

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
