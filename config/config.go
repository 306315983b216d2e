package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	PriceFeed  PriceFeedConfig  `yaml:"price_feed"`
	Calculator CalculatorConfig `yaml:"calculator"`
	Storage    StorageConfig    `yaml:"storage"`
	Cache      CacheConfig      `yaml:"cache"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	RateLimit       int           `yaml:"rate_limit"`
	RateWindow      time.Duration `yaml:"rate_window"`
	TrustProxy      bool          `yaml:"trust_proxy"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type PriceFeedConfig struct {
	URL           string        `yaml:"url"`
	Interval      time.Duration `yaml:"interval"`
	Timeout       time.Duration `yaml:"timeout"`
	FallbackPrice float64       `yaml:"fallback_price"`
}

type CalculatorConfig struct {
	MinLoanAmount   float64 `yaml:"min_loan_amount"`
	MaxLoanAmount   float64 `yaml:"max_loan_amount"`
	MinInterestRate float64 `yaml:"min_interest_rate"`
	MinTermMonths   int     `yaml:"min_term_months"`
	MaxTermMonths   int     `yaml:"max_term_months"`
	MaxCapitalGains float64 `yaml:"max_capital_gains"`
}

// StorageConfig selects the waitlist backend: mongo, postgres or memory.
type StorageConfig struct {
	Driver          string `yaml:"driver"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
	PostgresDSN     string `yaml:"postgres_dsn"`
	PostgresMaxConn int    `yaml:"postgres_max_conns"`
}

type CacheConfig struct {
	RedisURL  string        `yaml:"redis_url"`
	KeyPrefix string        `yaml:"key_prefix"`
	PriceTTL  time.Duration `yaml:"price_ttl"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
			RateLimit:       30,
			RateWindow:      time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		PriceFeed: PriceFeedConfig{
			URL:           "https://lucky-wave-c3fe.wolf07279.workers.dev",
			Interval:      time.Minute,
			Timeout:       10 * time.Second,
			FallbackPrice: 8_500_000,
		},
		Calculator: CalculatorConfig{
			MinLoanAmount:   50_000,
			MaxLoanAmount:   5_000_000,
			MinInterestRate: 13.5,
			MinTermMonths:   1,
			MaxTermMonths:   12,
		},
		Storage: StorageConfig{
			Driver:          "memory",
			MongoDatabase:   "pledg",
			MongoCollection: "waitlists",
			PostgresMaxConn: 10,
		},
		Cache: CacheConfig{
			KeyPrefix: "pledg:",
			PriceTTL:  24 * time.Hour,
		},
	}
}

// Load reads path over the defaults and then applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.HTTP.Addr = envOrDefault("PLEDG_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.AllowedOrigins = envCSV("PLEDG_ALLOWED_ORIGINS", cfg.HTTP.AllowedOrigins)
	cfg.HTTP.RateLimit = envInt("PLEDG_RATE_LIMIT", cfg.HTTP.RateLimit)
	cfg.HTTP.TrustProxy = envBool("PLEDG_TRUST_PROXY", cfg.HTTP.TrustProxy)
	cfg.Log.Level = envOrDefault("PLEDG_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOrDefault("PLEDG_LOG_FORMAT", cfg.Log.Format)
	cfg.PriceFeed.URL = envOrDefault("PLEDG_PRICE_FEED_URL", cfg.PriceFeed.URL)
	cfg.PriceFeed.Interval = envDuration("PLEDG_PRICE_FEED_INTERVAL", cfg.PriceFeed.Interval)
	cfg.PriceFeed.FallbackPrice = envFloat("PLEDG_FALLBACK_PRICE", cfg.PriceFeed.FallbackPrice)
	cfg.Storage.Driver = envOrDefault("PLEDG_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.MongoURI = envOrDefault("MONGODB_URI", cfg.Storage.MongoURI)
	cfg.Storage.PostgresDSN = envOrDefault("DATABASE_URL", cfg.Storage.PostgresDSN)
	cfg.Cache.RedisURL = envOrDefault("REDIS_URL", cfg.Cache.RedisURL)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "mongo":
		if c.Storage.MongoURI == "" {
			return errors.New("storage.mongo_uri (or MONGODB_URI) is required for the mongo driver")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn (or DATABASE_URL) is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.PriceFeed.Interval <= 0 {
		return errors.New("price_feed.interval must be positive")
	}
	if c.Calculator.MinLoanAmount > c.Calculator.MaxLoanAmount && c.Calculator.MaxLoanAmount > 0 {
		return errors.New("calculator.min_loan_amount exceeds max_loan_amount")
	}
	if c.Calculator.MinTermMonths > c.Calculator.MaxTermMonths && c.Calculator.MaxTermMonths > 0 {
		return errors.New("calculator.min_term_months exceeds max_term_months")
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	out := []string{}
	for _, v := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
