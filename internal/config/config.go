package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    LoggerConfig    `yaml:"logger"`
	Auth      AuthConfig      `yaml:"auth"`
	S3        S3Config        `yaml:"s3"`
	Discounts DiscountsConfig `yaml:"discounts"`
	Payments  PaymentsConfig  `yaml:"payments"`
	Cache     CacheConfig     `yaml:"cache"`
	Events    EventsConfig    `yaml:"events"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"name"`
	MaxConnections  int    `yaml:"max_connections"`
	MinConnections  int    `yaml:"min_connections"`
	MaxConnLifetime int    `yaml:"max_conn_lifetime"` // seconds
	AutoMigrate     bool   `yaml:"auto_migrate"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// S3Config holds AWS S3 configuration for discount catalogue files.
type S3Config struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Prefix  string `yaml:"prefix"` // Path prefix within bucket (e.g., "discounts/")
}

// DiscountsConfig lists the discount catalogue files.
type DiscountsConfig struct {
	Dir   string   `yaml:"dir"`
	Files []string `yaml:"files"`
}

// PaymentsConfig selects the payment gateway used for refunds.
type PaymentsConfig struct {
	Provider        string `yaml:"provider"` // "stripe" or "sandbox"
	StripeSecretKey string `yaml:"stripe_secret_key"`
}

// CacheConfig holds Redis configuration for order snapshots.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// EventsConfig holds Kafka configuration for domain events.
type EventsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Load loads configuration from the optional CONFIG_FILE and environment
// variables. Environment variables take precedence over the file.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "orderdesk",
			MaxConnections:  25,
			MinConnections:  5,
			MaxConnLifetime: 300,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		S3: S3Config{
			Region: "us-east-1",
			Prefix: "discounts/",
		},
		Discounts: DiscountsConfig{
			Dir:   "data",
			Files: []string{"discounts1.gz", "discounts2.gz", "discounts3.gz"},
		},
		Payments: PaymentsConfig{
			Provider: "sandbox",
		},
		Cache: CacheConfig{
			Addr: "localhost:6379",
			TTL:  30 * time.Second,
		},
		Events: EventsConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "orderdesk.orders",
		},
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsInt("SERVER_PORT", cfg.Server.Port)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvAsInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("DB_NAME", cfg.Database.Database)
	cfg.Database.MaxConnections = getEnvAsInt("DB_MAX_CONNECTIONS", cfg.Database.MaxConnections)
	cfg.Database.MinConnections = getEnvAsInt("DB_MIN_CONNECTIONS", cfg.Database.MinConnections)
	cfg.Database.MaxConnLifetime = getEnvAsInt("DB_MAX_CONN_LIFETIME", cfg.Database.MaxConnLifetime)
	cfg.Database.AutoMigrate = getEnvAsBool("DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = getEnv("LOG_FORMAT", cfg.Logger.Format)

	cfg.Auth.APIKey = getEnv("API_KEY", cfg.Auth.APIKey)

	cfg.S3.Enabled = getEnvAsBool("S3_ENABLED", cfg.S3.Enabled)
	cfg.S3.Bucket = getEnv("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Region = getEnv("S3_REGION", cfg.S3.Region)
	cfg.S3.Prefix = getEnv("S3_PREFIX", cfg.S3.Prefix)

	cfg.Discounts.Dir = getEnv("DISCOUNTS_DIR", cfg.Discounts.Dir)
	cfg.Discounts.Files = getEnvAsList("DISCOUNTS_FILES", cfg.Discounts.Files)

	cfg.Payments.Provider = getEnv("PAYMENTS_PROVIDER", cfg.Payments.Provider)
	cfg.Payments.StripeSecretKey = getEnv("STRIPE_SECRET_KEY", cfg.Payments.StripeSecretKey)

	cfg.Cache.Enabled = getEnvAsBool("REDIS_ENABLED", cfg.Cache.Enabled)
	cfg.Cache.Addr = getEnv("REDIS_ADDR", cfg.Cache.Addr)
	cfg.Cache.Password = getEnv("REDIS_PASSWORD", cfg.Cache.Password)
	cfg.Cache.DB = getEnvAsInt("REDIS_DB", cfg.Cache.DB)
	cfg.Cache.TTL = getEnvAsDuration("REDIS_TTL", cfg.Cache.TTL)

	cfg.Events.Enabled = getEnvAsBool("KAFKA_ENABLED", cfg.Events.Enabled)
	cfg.Events.Brokers = getEnvAsList("KAFKA_BROKERS", cfg.Events.Brokers)
	cfg.Events.Topic = getEnv("KAFKA_TOPIC", cfg.Events.Topic)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	switch c.Payments.Provider {
	case "sandbox":
	case "stripe":
		if c.Payments.StripeSecretKey == "" {
			return fmt.Errorf("stripe secret key is required when the stripe provider is selected")
		}
	default:
		return fmt.Errorf("invalid payments provider: %s (must be stripe or sandbox)", c.Payments.Provider)
	}

	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			return fmt.Errorf("redis address is required when the cache is enabled")
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache TTL must be positive")
		}
	}

	if c.Events.Enabled {
		if len(c.Events.Brokers) == 0 {
			return fmt.Errorf("at least one kafka broker is required when events are enabled")
		}
		if c.Events.Topic == "" {
			return fmt.Errorf("kafka topic is required when events are enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration ("30s", "5m").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
