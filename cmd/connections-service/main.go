package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/freedombydesign/connections-service/internal/config"
	repoPostgres "github.com/freedombydesign/connections-service/internal/domain/repository/postgres"
	"github.com/freedombydesign/connections-service/internal/events"
	kafkaEvents "github.com/freedombydesign/connections-service/internal/events/kafka"
	httpHandler "github.com/freedombydesign/connections-service/internal/handler/http"
	"github.com/freedombydesign/connections-service/internal/provider"
	"github.com/freedombydesign/connections-service/internal/service"
	"github.com/freedombydesign/connections-service/internal/utils/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := telemetry.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	if cfg.Database.AutoMigrate {
		logger.Info("Running database migrations")
		m, err := migrate.New("file://migrations", cfg.Database.DSN())
		if err != nil {
			logger.Fatal("Failed to create migration instance", zap.Error(err))
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		logger.Info("Migrations applied successfully")
	}

	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		logger.Fatal("Failed to initialize PostgreSQL connection pool", zap.Error(err))
	}
	defer dbPool.Close()

	connectionRepo := repoPostgres.NewConnectionRepositoryPostgres(dbPool)

	var publisher events.Publisher
	if cfg.Kafka.Enabled {
		kafkaProducer, err := kafkaEvents.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, "/connections-service", logger)
		if err != nil {
			logger.Fatal("Failed to initialize Kafka producer", zap.Error(err))
		}
		defer kafkaProducer.Close()
		publisher = kafkaProducer
	}

	registry := provider.NewRegistry(cfg.Providers)
	httpClient := &http.Client{Timeout: cfg.OAuth.RequestTimeout}
	connectionService := service.NewConnectionService(registry, connectionRepo, publisher, httpClient, logger)

	router := httpHandler.SetupRouter(connectionService, cfg, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}
