// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/bloodbank-be/internal/adapters/db"
	"github.com/ammerola/bloodbank-be/internal/adapters/kafka"
	"github.com/ammerola/bloodbank-be/internal/adapters/memory"
	redis_a "github.com/ammerola/bloodbank-be/internal/adapters/redis_adapter"
	"github.com/ammerola/bloodbank-be/internal/adapters/storage"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
	"github.com/ammerola/bloodbank-be/internal/core/services"
	"github.com/ammerola/bloodbank-be/internal/pkg/config"
	"github.com/ammerola/bloodbank-be/internal/pkg/logger"
	"github.com/ammerola/bloodbank-be/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.GetRedisAddress()),
		slog.String("store", cfg.Inventory.Store))

	ctx := context.Background()

	if cfg.IsProduction() && cfg.Security.SecretsName != "" {
		sm, err := config.NewAWSSecretsManager(ctx, cfg.Security.SecretsRegion, cfg.Security.SecretsName, slogger)
		if err == nil {
			err = config.ApplySecrets(ctx, cfg, sm)
		}
		if err != nil {
			slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	repo, closeRepo, err := initRepository(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize ledger store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepo()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddress(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
	})
	defer redisClient.Close()

	var publisher ports.EventPublisher = kafka.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, slogger)
	}
	defer publisher.Close()

	inventoryService := services.NewInventoryService(repo, services.Options{
		Cache:             redis_a.NewCache(redisClient, cfg.Inventory.CacheTTL, slogger),
		Publisher:         publisher,
		Alerts:            workers.NewTaskClient(asynqClient, cfg.Inventory.AlertDedupWindow, slogger),
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		CacheTTL:          cfg.Inventory.CacheTTL,
		Location:          cfg.Inventory.Location,
	}, slogger)

	archiver, err := initArchiver(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize history archive", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     cfg.Worker.Concurrency,
			Queues:          cfg.Worker.Queues,
			StrictPriority:  cfg.Worker.StrictPriority,
			ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
			RetryDelayFunc:  exponentialBackoff,
			ShutdownTimeout: cfg.Worker.ShutdownTimeout,
			HealthCheckFunc: healthCheck,
			Logger:          newAsynqLogger(slogger),
		},
	)

	mux := workers.NewServeMux(workers.Processors{
		Expiry:   workers.NewExpiryProcessor(inventoryService, slogger),
		Donation: workers.NewDonationProcessor(inventoryService, slogger),
		Alert:    workers.NewAlertProcessor(cfg.Inventory.AlertRecipients, slogger),
		Archive:  workers.NewArchiveProcessor(repo, archiver, slogger),
	})

	loc, err := time.LoadLocation(cfg.Worker.Timezone)
	if err != nil {
		slogger.Warn("unknown worker timezone, using UTC",
			slog.String("timezone", cfg.Worker.Timezone),
			slog.String("error", err.Error()))
		loc = time.UTC
	}

	scheduler, err := workers.NewScheduler(redisOpt,
		workers.DefaultSchedules(cfg.Worker.ExpirySchedule, cfg.Worker.ArchiveSchedule, cfg.Worker.ArchiveLimit),
		loc, slogger)
	if err != nil {
		slogger.Error("failed to register periodic tasks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	if err := scheduler.Start(); err != nil {
		slogger.Error("failed to start scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Worker.Concurrency),
		slog.Any("queues", cfg.Worker.Queues),
		slog.String("expiry_schedule", cfg.Worker.ExpirySchedule),
		slog.String("archive_schedule", cfg.Worker.ArchiveSchedule))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

// initRepository opens the configured ledger store. The worker shares the
// API's store, so the in-memory backend is only useful for local runs.
func initRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.LedgerRepository, func(), error) {
	if cfg.Inventory.Store == config.StoreMemory {
		logger.Warn("worker using in-memory ledger store; it does not see API writes")
		return memory.NewLedgerRepository(logger), func() {}, nil
	}

	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     10, // Fewer connections for worker
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	database, err := db.NewDatabase(ctx, dbConfig, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db.NewLedgerRepository(database, logger), database.Close, nil
}

func initArchiver(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage.HistoryArchiver, error) {
	var store storage.ObjectStore
	switch cfg.Storage.Driver {
	case "s3":
		s3Store, err := storage.NewS3Storage(ctx, &storage.S3Config{
			Region:          cfg.Storage.Region,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Endpoint:        cfg.Storage.Endpoint,
			UsePathStyle:    cfg.Storage.UsePathStyle,
		}, logger)
		if err != nil {
			return nil, err
		}
		store = s3Store
	default:
		store = storage.NewLocalStorage(cfg.Storage.LocalPath, logger)
	}

	logger.Info("history archive configured",
		slog.String("driver", cfg.Storage.Driver),
		slog.String("prefix", cfg.Storage.ArchivePrefix))

	return storage.NewHistoryArchiver(store, cfg.Storage.ArchivePrefix, logger), nil
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("payload", string(task.Payload())),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
