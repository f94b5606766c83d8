// internal/pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRequiredConfig marks a required setting that is empty or still a placeholder
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Store backends for the ledger repository
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Storage   StorageConfig
	Inventory InventoryConfig
	Worker    WorkerConfig
	Security  SecurityConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name          string `required:"true"`
	Environment   string // development, staging, production
	Version       string
	LogLevel      string
	LogFormat     string // json, text
	LogSampleRate float64
	Debug         bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `required:"true"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
	TLSEnabled      bool
	TLSCertFile     string
	TLSKeyFile      string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string
	User               string
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string
	EnableQueryLogging bool
	MigrationPath      string // empty uses the embedded migrations
	AutoMigrate        bool
}

// RedisConfig holds Redis configuration shared by the cache and asynq
type RedisConfig struct {
	Host         string `required:"true"`
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds ledger event stream configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// StorageConfig holds history archive storage configuration
type StorageConfig struct {
	Driver          string // s3, local
	LocalPath       string
	Bucket          string
	Region          string
	Endpoint        string // For MinIO in development
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	ArchivePrefix   string
}

// InventoryConfig holds ledger behaviour settings
type InventoryConfig struct {
	Store             string // postgres, memory
	Location          string
	LowStockThreshold int
	CacheTTL          time.Duration
	AsyncDonations    bool
	AlertDedupWindow  time.Duration
	AlertRecipients   []string
}

// WorkerConfig holds asynq server and scheduler configuration
type WorkerConfig struct {
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	ShutdownTimeout time.Duration
	ExpirySchedule  string
	ArchiveSchedule string
	ArchiveLimit    int
	Timezone        string
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	SecureHeaders     bool
	SSLRedirect       bool
	RequestIDHeader   string
	ActorHeader       string
	SecretsName       string
	SecretsRegion     string
}

// Load loads configuration from the environment, an optional .env file and
// an optional config file named by CONFIG_FILE
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Debug("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, env)

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		logger.Info("config file loaded", slog.String("path", v.ConfigFileUsed()))
	}

	cfg := fromViper(v, env)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func fromViper(v *viper.Viper, env string) *Config {
	return &Config{
		App: AppConfig{
			Name:          v.GetString("app.name"),
			Environment:   env,
			Version:       v.GetString("app.version"),
			LogLevel:      v.GetString("log.level"),
			LogFormat:     v.GetString("log.format"),
			LogSampleRate: v.GetFloat64("log.sample.rate"),
			Debug:         v.GetBool("app.debug"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetString("server.port"),
			ReadTimeout:     v.GetDuration("server.read.timeout"),
			WriteTimeout:    v.GetDuration("server.write.timeout"),
			IdleTimeout:     v.GetDuration("server.idle.timeout"),
			MaxHeaderBytes:  v.GetInt("server.max.header.bytes"),
			GracefulTimeout: v.GetDuration("server.graceful.timeout"),
			TLSEnabled:      v.GetBool("tls.enabled"),
			TLSCertFile:     v.GetString("tls.cert.file"),
			TLSKeyFile:      v.GetString("tls.key.file"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("db.host"),
			Port:               v.GetString("db.port"),
			User:               v.GetString("db.user"),
			Password:           v.GetString("db.password"),
			Name:               v.GetString("db.name"),
			SSLMode:            v.GetString("db.ssl.mode"),
			MaxConnections:     v.GetInt32("db.max.connections"),
			MinConnections:     v.GetInt32("db.min.connections"),
			MaxConnLifetime:    v.GetDuration("db.connection.lifetime"),
			MaxConnIdleTime:    v.GetDuration("db.idle.time"),
			HealthCheckPeriod:  v.GetDuration("db.health.check.period"),
			ConnectTimeout:     v.GetDuration("db.connect.timeout"),
			StatementCacheMode: v.GetString("db.statement.cache.mode"),
			EnableQueryLogging: v.GetBool("db.query.logging"),
			MigrationPath:      v.GetString("db.migration.path"),
			AutoMigrate:        v.GetBool("db.auto.migrate"),
		},
		Redis: RedisConfig{
			Host:         v.GetString("redis.host"),
			Port:         v.GetString("redis.port"),
			Password:     v.GetString("redis.password"),
			DB:           v.GetInt("redis.db"),
			PoolSize:     v.GetInt("redis.pool.size"),
			MinIdleConns: v.GetInt("redis.min.idle.conns"),
			DialTimeout:  v.GetDuration("redis.dial.timeout"),
			ReadTimeout:  v.GetDuration("redis.read.timeout"),
			WriteTimeout: v.GetDuration("redis.write.timeout"),
		},
		Kafka: KafkaConfig{
			Enabled: v.GetBool("kafka.enabled"),
			Brokers: stringList(v, "kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
		},
		Storage: StorageConfig{
			Driver:          v.GetString("storage.driver"),
			LocalPath:       v.GetString("storage.local.path"),
			Bucket:          v.GetString("aws.s3.bucket"),
			Region:          v.GetString("aws.region"),
			Endpoint:        v.GetString("aws.s3.endpoint"),
			AccessKeyID:     v.GetString("aws.access.key.id"),
			SecretAccessKey: v.GetString("aws.secret.access.key"),
			UsePathStyle:    v.GetBool("aws.s3.path.style"),
			ArchivePrefix:   v.GetString("storage.archive.prefix"),
		},
		Inventory: InventoryConfig{
			Store:             v.GetString("inventory.store"),
			Location:          v.GetString("inventory.location"),
			LowStockThreshold: v.GetInt("inventory.low.stock.threshold"),
			CacheTTL:          v.GetDuration("inventory.cache.ttl"),
			AsyncDonations:    v.GetBool("inventory.async.donations"),
			AlertDedupWindow:  v.GetDuration("inventory.alert.dedup.window"),
			AlertRecipients:   stringList(v, "inventory.alert.recipients"),
		},
		Worker: WorkerConfig{
			Concurrency:     v.GetInt("asynq.concurrency"),
			Queues:          parseQueues(v.GetString("asynq.queues")),
			StrictPriority:  v.GetBool("asynq.strict.priority"),
			ShutdownTimeout: v.GetDuration("asynq.shutdown.timeout"),
			ExpirySchedule:  v.GetString("worker.expiry.schedule"),
			ArchiveSchedule: v.GetString("worker.archive.schedule"),
			ArchiveLimit:    v.GetInt("worker.archive.limit"),
			Timezone:        v.GetString("worker.timezone"),
		},
		Security: SecurityConfig{
			RateLimitRequests: v.GetInt("rate.limit.requests"),
			RateLimitDuration: v.GetDuration("rate.limit.duration"),
			AllowedOrigins:    stringList(v, "allowed.origins"),
			SecureHeaders:     v.GetBool("secure.headers"),
			SSLRedirect:       v.GetBool("ssl.redirect"),
			RequestIDHeader:   v.GetString("request.id.header"),
			ActorHeader:       v.GetString("actor.header"),
			SecretsName:       v.GetString("aws.secrets.name"),
			SecretsRegion:     v.GetString("aws.region"),
		},
	}
}

func setDefaults(v *viper.Viper, env string) {
	dev := env == "development" || env == "local"

	v.SetDefault("app.name", "bloodbank-api")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.debug", dev)
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.sample.rate", 1.0)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read.timeout", 15*time.Second)
	v.SetDefault("server.write.timeout", 15*time.Second)
	v.SetDefault("server.idle.timeout", 60*time.Second)
	v.SetDefault("server.max.header.bytes", 1<<20)
	v.SetDefault("server.graceful.timeout", 30*time.Second)
	v.SetDefault("tls.enabled", false)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "bloodbank")
	v.SetDefault("db.password", "bloodbank_dev")
	v.SetDefault("db.name", "bloodbank")
	v.SetDefault("db.ssl.mode", "disable")
	v.SetDefault("db.max.connections", 25)
	v.SetDefault("db.min.connections", 5)
	v.SetDefault("db.connection.lifetime", time.Hour)
	v.SetDefault("db.idle.time", 30*time.Minute)
	v.SetDefault("db.health.check.period", time.Minute)
	v.SetDefault("db.connect.timeout", 10*time.Second)
	v.SetDefault("db.statement.cache.mode", "describe")
	v.SetDefault("db.query.logging", false)
	v.SetDefault("db.migration.path", "")
	v.SetDefault("db.auto.migrate", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool.size", 10)
	v.SetDefault("redis.min.idle.conns", 2)
	v.SetDefault("redis.dial.timeout", 5*time.Second)
	v.SetDefault("redis.read.timeout", 3*time.Second)
	v.SetDefault("redis.write.timeout", 3*time.Second)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "inventory.events")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.path", "./data/archive")
	v.SetDefault("storage.archive.prefix", "ledger-history")
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.s3.bucket", "bloodbank-archive")
	v.SetDefault("aws.s3.endpoint", "")
	v.SetDefault("aws.access.key.id", "")
	v.SetDefault("aws.secret.access.key", "")
	v.SetDefault("aws.s3.path.style", dev)
	v.SetDefault("aws.secrets.name", "")

	v.SetDefault("inventory.store", StorePostgres)
	v.SetDefault("inventory.location", "Main Blood Bank")
	v.SetDefault("inventory.low.stock.threshold", 5)
	v.SetDefault("inventory.cache.ttl", 30*time.Second)
	v.SetDefault("inventory.async.donations", false)
	v.SetDefault("inventory.alert.dedup.window", 30*time.Minute)
	v.SetDefault("inventory.alert.recipients", "blood-bank-staff")

	v.SetDefault("asynq.concurrency", 10)
	v.SetDefault("asynq.queues", "critical:6,default:3,low:1")
	v.SetDefault("asynq.strict.priority", false)
	v.SetDefault("asynq.shutdown.timeout", 30*time.Second)
	v.SetDefault("worker.expiry.schedule", "@hourly")
	v.SetDefault("worker.archive.schedule", "@daily")
	v.SetDefault("worker.archive.limit", 5000)
	v.SetDefault("worker.timezone", "UTC")

	v.SetDefault("rate.limit.requests", 100)
	v.SetDefault("rate.limit.duration", time.Minute)
	v.SetDefault("allowed.origins", "*")
	v.SetDefault("secure.headers", env == "production")
	v.SetDefault("ssl.redirect", false)
	v.SetDefault("request.id.header", "X-Request-ID")
	v.SetDefault("actor.header", "X-Actor-ID")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validators := []Validator{&BasicValidator{}}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{}, &SecurityValidator{})
	}

	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetRedisAddress returns host:port for Redis
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// stringList reads a list that may come from a comma separated env var or a
// YAML sequence
func stringList(v *viper.Viper, key string) []string {
	raw := v.Get(key)
	s, ok := raw.(string)
	if !ok {
		return v.GetStringSlice(key)
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(queuesStr, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err == nil && name != "" && priority > 0 {
			queues[name] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
