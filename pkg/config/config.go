package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Database (optional, only used by the postgres snapshot backend)
	Database DatabaseConfig

	// Redis (optional cache + distributed rate limit)
	Redis RedisConfig

	// Price providers
	Yahoo         YahooConfig
	Naver         NaverConfig
	PriceCacheTTL time.Duration // in-process cache for on-demand fetches, 0 disables

	// Returns pipeline
	Pipeline  PipelineConfig
	Report    ReportConfig
	Snapshot  SnapshotConfig
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL   string
	RateLimit int // requests per second, 0 disables the local limiter
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL   string
	ChartURL  string
	RateLimit int // requests per second, 0 disables the local limiter
}

// PipelineConfig controls one pass over the universe
type PipelineConfig struct {
	UniverseFile string
	FetchRange   string        // provider range, e.g. 1mo, 3mo
	PriceSource  string        // auto, yahoo, naver
	Workers      int           // concurrent asset fetches
	FetchTimeout time.Duration // per-asset bound
}

// ReportConfig controls the published JSON artifacts
type ReportConfig struct {
	OutputDir   string
	MoversLimit int // entries in top_movers / bottom_movers, 0 uses the ranker default
	SectorTopN  int // entries per sector in top_by_sector
	Console     bool
}

// SnapshotConfig controls the daily snapshot history
type SnapshotConfig struct {
	Dir           string
	Backend       string // csv, postgres, sqlite
	SQLitePath    string
	RetentionDays int
}

// SchedulerConfig controls the pass loop
type SchedulerConfig struct {
	Interval   time.Duration
	RunOnStart bool
}

// Snapshot backends
const (
	SnapshotBackendCSV      = "csv"
	SnapshotBackendPostgres = "postgres"
	SnapshotBackendSQLite   = "sqlite"
)

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Price providers
		Yahoo: YahooConfig{
			BaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RateLimit: getEnvAsInt("YAHOO_RATE_LIMIT", 5),
		},

		Naver: NaverConfig{
			BaseURL:   getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartURL:  getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
			RateLimit: getEnvAsInt("NAVER_RATE_LIMIT", 3),
		},

		PriceCacheTTL: getEnvAsDuration("PRICE_CACHE_TTL", "5m"),

		Pipeline: PipelineConfig{
			UniverseFile: getEnv("UNIVERSE_FILE", "data/universe.csv"),
			FetchRange:   getEnv("PIPELINE_FETCH_RANGE", "3mo"),
			PriceSource:  getEnv("PRICE_SOURCE", "auto"),
			Workers:      getEnvAsInt("PIPELINE_WORKERS", 4),
			FetchTimeout: getEnvAsDuration("PIPELINE_FETCH_TIMEOUT", "20s"),
		},

		Report: ReportConfig{
			OutputDir:   getEnv("REPORT_OUTPUT_DIR", "data/output"),
			MoversLimit: getEnvAsInt("REPORT_MOVERS_LIMIT", 5),
			SectorTopN:  getEnvAsInt("REPORT_SECTOR_TOP_N", 3),
			Console:     getEnvAsBool("REPORT_CONSOLE", false),
		},

		Snapshot: SnapshotConfig{
			Dir:           getEnv("SNAPSHOT_DIR", "data/snapshots"),
			Backend:       getEnv("SNAPSHOT_BACKEND", SnapshotBackendCSV),
			SQLitePath:    getEnv("SNAPSHOT_SQLITE_PATH", "data/snapshots.db"),
			RetentionDays: getEnvAsInt("SNAPSHOT_RETENTION_DAYS", 0),
		},

		Scheduler: SchedulerConfig{
			Interval:   getEnvAsDuration("SCHEDULER_INTERVAL", "15m"),
			RunOnStart: getEnvAsBool("SCHEDULER_RUN_ON_START", true),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1")
	}

	if c.Pipeline.FetchTimeout <= 0 {
		return fmt.Errorf("PIPELINE_FETCH_TIMEOUT must be positive")
	}

	switch c.Pipeline.PriceSource {
	case "auto", "yahoo", "naver":
	default:
		return fmt.Errorf("PRICE_SOURCE must be one of: auto, yahoo, naver")
	}

	switch c.Snapshot.Backend {
	case SnapshotBackendCSV, SnapshotBackendSQLite:
	case SnapshotBackendPostgres:
		// Database URL is required only for the postgres backend
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when SNAPSHOT_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("SNAPSHOT_BACKEND must be one of: csv, postgres, sqlite")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
