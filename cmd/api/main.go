// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/bloodbank-be/internal/adapters/db"
	"github.com/ammerola/bloodbank-be/internal/adapters/kafka"
	"github.com/ammerola/bloodbank-be/internal/adapters/memory"
	redis_a "github.com/ammerola/bloodbank-be/internal/adapters/redis_adapter"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
	"github.com/ammerola/bloodbank-be/internal/core/services"
	"github.com/ammerola/bloodbank-be/internal/handlers"
	"github.com/ammerola/bloodbank-be/internal/handlers/middleware"
	"github.com/ammerola/bloodbank-be/internal/pkg/config"
	"github.com/ammerola/bloodbank-be/internal/pkg/logger"
	"github.com/ammerola/bloodbank-be/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

const apiPrefix = "/api/v1"

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting blood bank inventory api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.New(logger.Options{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		SampleRate:  cfg.App.LogSampleRate,
		Service:     cfg.App.Name,
		Version:     Version,
		Environment: cfg.App.Environment,
	})
	slog.SetDefault(slogger)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
		slog.String("store", cfg.Inventory.Store),
	)

	ctx := context.Background()

	if cfg.IsProduction() && cfg.Security.SecretsName != "" {
		sm, err := config.NewAWSSecretsManager(ctx, cfg.Security.SecretsRegion, cfg.Security.SecretsName, slogger)
		if err != nil {
			slogger.Error("failed to initialize secrets manager", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := config.ApplySecrets(ctx, cfg, sm); err != nil {
			slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup(slogger)

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database         *db.Database
	redisClient      *redis.Client
	asynqClient      *asynq.Client
	asynqInspector   *asynq.Inspector
	publisher        ports.EventPublisher
	inventoryService *services.InventoryService
	inventoryHandler *handlers.InventoryHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup(logger *slog.Logger) {
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", slog.String("error", err.Error()))
		}
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		if err := d.asynqClient.Close(); err != nil {
			logger.Error("failed to close Asynq client", slog.String("error", err.Error()))
		}
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	repo, database, err := initRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.database = database

	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		deps.cleanup(logger)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddress(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)
	taskClient := workers.NewTaskClient(deps.asynqClient, cfg.Inventory.AlertDedupWindow, logger)

	if cfg.Kafka.Enabled {
		logger.Info("publishing ledger events to Kafka",
			slog.Any("brokers", cfg.Kafka.Brokers),
			slog.String("topic", cfg.Kafka.Topic),
		)
		deps.publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	} else {
		deps.publisher = kafka.NopPublisher{}
	}

	cache := redis_a.NewCache(redisClient, cfg.Inventory.CacheTTL, logger)
	deps.inventoryService = services.NewInventoryService(repo, services.Options{
		Cache:             cache,
		Publisher:         deps.publisher,
		Alerts:            taskClient,
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		CacheTTL:          cfg.Inventory.CacheTTL,
		Location:          cfg.Inventory.Location,
	}, logger)

	var ingestor ports.DonationIngestor = deps.inventoryService
	if cfg.Inventory.AsyncDonations {
		ingestor = taskClient
	}

	deps.inventoryHandler = handlers.NewInventoryHandler(deps.inventoryService, ingestor, cfg.Security.ActorHeader, logger)

	// A typed nil *db.Database would defeat the handler's nil check
	var healthDB ports.Database
	if database != nil {
		healthDB = database
	}
	deps.healthHandler = handlers.NewHealthHandler(repo, healthDB, cache, deps.asynqInspector, cfg, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepository returns the configured ledger store. The database is nil
// for the in-memory store.
func initRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.LedgerRepository, *db.Database, error) {
	if cfg.Inventory.Store == config.StoreMemory {
		logger.Warn("using in-memory ledger store; inventory is lost on restart")
		return memory.NewLedgerRepository(logger), nil, nil
	}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return db.NewLedgerRepository(database, logger), database, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
	mux.HandleFunc("GET "+apiPrefix+"/health", deps.healthHandler.Health)
	deps.inventoryHandler.RegisterRoutes(mux, apiPrefix)

	mws := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Actor(cfg.Security.ActorHeader),
		middleware.Logger(logger),
	}
	if cfg.Security.RateLimitRequests > 0 {
		mws = append(mws, middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		mws = append(mws, middleware.CORS(cfg.Security.AllowedOrigins, cfg.Security.ActorHeader))
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders(cfg.Security.SSLRedirect, cfg.IsDevelopment(), logger))
	}
	mws = append(mws, middleware.Compression)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(mux, mws...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, logger, 3)
}
