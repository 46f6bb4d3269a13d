package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Crawler (fetch capability) configuration
	Crawler CrawlerConfig

	// Analyzer (toxicity scoring capability) configuration
	Analyzer AnalyzerConfig

	// Ingestion pipeline configuration
	Ingest IngestConfig

	// Blocklist cache configuration
	Blocklist BlocklistConfig

	// Auth configuration
	Auth AuthConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `validate:"required,numeric"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string `validate:"required"`
	Port           string `validate:"required"`
	User           string
	Password       string
	Name           string `validate:"required"`
	SSLMode        string `validate:"oneof=disable require verify-ca verify-full"`
	MaxOpenConns   int    `validate:"gte=1"`
	MaxIdleConns   int    `validate:"gte=0"`
	MaxLifetime    time.Duration
	MigrationsPath string
}

// CrawlerConfig holds settings for the external comment crawler
type CrawlerConfig struct {
	BaseURL    string        `validate:"required,url"`
	Path       string        `validate:"required,startswith=/"`
	Timeout    time.Duration `validate:"gt=0"`
	MaxRetries int           `validate:"gte=0,lte=10"`
}

// AnalyzerConfig holds settings for the toxicity scorer
type AnalyzerConfig struct {
	// Mode selects the scorer: "http" calls the analysis service, "vader" scores locally
	Mode       string        `validate:"oneof=http vader"`
	BaseURL    string        `validate:"omitempty,url"`
	Timeout    time.Duration `validate:"gt=0"`
	MaxRetries int           `validate:"gte=0,lte=10"`
	// Threshold is the toxicity score above which a comment is malicious
	Threshold decimal.Decimal
}

// IngestConfig holds ingestion pipeline settings
type IngestConfig struct {
	DefaultWindowDays int `validate:"gte=1"`
	QueryLookbackDays int `validate:"gte=1"`
	MaxRunErrors      int `validate:"gte=0"`
}

// BlocklistConfig holds the optional Redis cache for active blocked words
type BlocklistConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int `validate:"gte=0"`
	CacheTTL      time.Duration
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string `validate:"required,min=16"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `validate:"oneof=trace debug info warn error"`
	Format string `validate:"oneof=json pretty"`
}

// Load reads configuration from environment variables, after applying an
// optional .env file from the working directory.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := gotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 300*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "contentshield"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Crawler: CrawlerConfig{
			BaseURL:    getEnv("CRAWLER_BASE_URL", "http://localhost:8000"),
			Path:       getEnv("CRAWLER_PATH", "/crawl/youtube"),
			Timeout:    getDurationEnv("CRAWLER_TIMEOUT", 120*time.Second),
			MaxRetries: getIntEnv("CRAWLER_MAX_RETRIES", 2),
		},
		Analyzer: AnalyzerConfig{
			Mode:       getEnv("ANALYZER_MODE", "http"),
			BaseURL:    getEnv("ANALYZER_BASE_URL", "http://localhost:8000"),
			Timeout:    getDurationEnv("ANALYZER_TIMEOUT", 30*time.Second),
			MaxRetries: getIntEnv("ANALYZER_MAX_RETRIES", 2),
			Threshold:  getDecimalEnv("ANALYZER_MALICIOUS_THRESHOLD", decimal.NewFromInt(50)),
		},
		Ingest: IngestConfig{
			DefaultWindowDays: getIntEnv("INGEST_DEFAULT_WINDOW_DAYS", 7),
			QueryLookbackDays: getIntEnv("QUERY_LOOKBACK_DAYS", 365),
			MaxRunErrors:      getIntEnv("INGEST_MAX_RUN_ERRORS", 1000),
		},
		Blocklist: BlocklistConfig{
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getIntEnv("REDIS_DB", 0),
			CacheTTL:      getDurationEnv("BLOCKLIST_CACHE_TTL", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid configuration: %s failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Analyzer.Mode == "http" && c.Analyzer.BaseURL == "" {
		return fmt.Errorf("ANALYZER_BASE_URL is required when ANALYZER_MODE=http")
	}
	if c.Analyzer.Threshold.IsNegative() || c.Analyzer.Threshold.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("ANALYZER_MALICIOUS_THRESHOLD must be within 0..100")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Endpoint returns the full crawl URL
func (c *CrawlerConfig) Endpoint() string {
	return c.BaseURL + c.Path
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getDecimalEnv(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
