package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port           int
	DevMode        bool
	LogLevel       string
	InitialCapital float64
	FundAPIURL     string
	QuoteTimeout   time.Duration
	ListCacheTTL   time.Duration
	QuoteCacheTTL  time.Duration
	CatalogCron    string
	PriceTickCron  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvAsInt("PORT", 8000),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		InitialCapital: getEnvAsFloat("INITIAL_CAPITAL", 100000),
		FundAPIURL:     getEnv("FUND_API_URL", "https://fundapi.eastmoney.example"),
		QuoteTimeout:   getEnvAsDuration("QUOTE_TIMEOUT", 15*time.Second),
		ListCacheTTL:   getEnvAsDuration("LIST_CACHE_TTL", time.Hour),
		QuoteCacheTTL:  getEnvAsDuration("QUOTE_CACHE_TTL", 5*time.Minute),
		CatalogCron:    getEnv("CATALOG_REFRESH_SCHEDULE", "@every 1h"),
		PriceTickCron:  getEnv("PRICE_TICK_SCHEDULE", "@every 30s"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("INITIAL_CAPITAL must be positive, got %.2f", c.InitialCapital)
	}
	if c.FundAPIURL == "" {
		return fmt.Errorf("FUND_API_URL is required")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
