package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data source
	MarketData MarketDataConfig

	// Headline sentiment scoring
	Sentiment SentimentConfig

	// Training pipeline
	Training TrainingConfig

	// Logging
	LogLevel  string
	LogFormat string
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// MarketDataConfig holds the upstream quote/news source configuration
type MarketDataConfig struct {
	BaseURL        string
	NewsBaseURL    string
	Timeout        time.Duration
	RequestsPerSec float64
}

// SentimentConfig gates the headline sentiment endpoint. The analyzer
// is trained at startup from a labeled corpus file (CSV: label,text).
type SentimentConfig struct {
	Enabled    bool
	CorpusPath string
}

// TrainingConfig holds the model-training pipeline configuration
type TrainingConfig struct {
	// Chronological split ratios: train ends at TrainRatio, validation at ValRatio.
	TrainRatio float64
	ValRatio   float64

	// Seed for every stochastic estimator.
	Seed int64

	// MaxBars caps the training window (most recent bars kept).
	MaxBars int

	// MinRows is the minimum usable sample after feature engineering.
	MinRows int

	// UseLongWindows enables 52-week extreme features (raises the minimum
	// input length from 20 to 50 bars).
	UseLongWindows bool

	// RequireMarketContext hard-fails feature generation when the benchmark
	// or volatility-index series cannot be fetched. Default is to degrade
	// to the base feature set with a warning.
	RequireMarketContext bool

	// EnableMLP gates the neural-network estimators in the registry.
	EnableMLP bool

	BenchmarkSymbol string
	VolIndexSymbol  string

	// Watchlist retrained on schedule.
	Watchlist   []string
	RetrainCron string

	// ModelTTL bounds how long a cached trained pipeline is served before
	// a retrain is forced.
	ModelTTL time.Duration
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		MarketData: MarketDataConfig{
			BaseURL:        getEnv("MARKET_DATA_BASE_URL", "https://query1.finance.yahoo.com"),
			NewsBaseURL:    getEnv("NEWS_BASE_URL", "https://finance.yahoo.com"),
			Timeout:        getEnvAsDuration("MARKET_DATA_TIMEOUT", "15s"),
			RequestsPerSec: getEnvAsFloat("MARKET_DATA_RPS", 4),
		},

		Sentiment: SentimentConfig{
			Enabled:    getEnvAsBool("SENTIMENT_ENABLED", false),
			CorpusPath: getEnv("SENTIMENT_CORPUS", ""),
		},

		Training: TrainingConfig{
			TrainRatio:           getEnvAsFloat("TRAIN_RATIO", 0.6),
			ValRatio:             getEnvAsFloat("VAL_RATIO", 0.8),
			Seed:                 int64(getEnvAsInt("TRAIN_SEED", 42)),
			MaxBars:              getEnvAsInt("TRAIN_MAX_BARS", 1250),
			MinRows:              getEnvAsInt("TRAIN_MIN_ROWS", 10),
			UseLongWindows:       getEnvAsBool("TRAIN_USE_LONG_WINDOWS", false),
			RequireMarketContext: getEnvAsBool("TRAIN_REQUIRE_MARKET_CONTEXT", false),
			EnableMLP:            getEnvAsBool("TRAIN_ENABLE_MLP", true),
			BenchmarkSymbol:      getEnv("BENCHMARK_SYMBOL", "^GSPC"),
			VolIndexSymbol:       getEnv("VOL_INDEX_SYMBOL", "^VIX"),
			Watchlist:            getEnvAsList("RETRAIN_WATCHLIST", ""),
			RetrainCron:          getEnv("RETRAIN_CRON", "0 30 6 * * 1-5"),
			ModelTTL:             getEnvAsDuration("MODEL_TTL", "24h"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Training.TrainRatio <= 0 || c.Training.TrainRatio >= c.Training.ValRatio || c.Training.ValRatio >= 1 {
		return fmt.Errorf("split ratios must satisfy 0 < TRAIN_RATIO < VAL_RATIO < 1")
	}

	if c.Training.MaxBars < 20 {
		return fmt.Errorf("TRAIN_MAX_BARS must be at least 20")
	}

	if c.Sentiment.Enabled && c.Sentiment.CorpusPath == "" {
		return fmt.Errorf("SENTIMENT_CORPUS must point to a labeled corpus when SENTIMENT_ENABLED is set")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	if valueStr == "" {
		return nil
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
