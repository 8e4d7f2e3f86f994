package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string

	// Storefront API
	APIBaseURL     string
	RequestTimeout time.Duration

	// Session credential validation. Optional: without a secret the engine
	// checks token structure and expiry only.
	JWTSecret string

	// Local durable storage
	LocalStorePath string

	// Client-side rate limit for remote calls
	RateLimitPerSec float64
	RateLimitBurst  int

	// Favorites batch-check cache
	FavoritesCheckTTL time.Duration

	// Business Rules
	MaxCartQuantity int
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: Try loading .env (standard local dev)
		// We don't error here because in packaged installs .env might not
		// exist, and we rely on system env vars.
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:3000"),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),

		LocalStorePath: getEnv("LOCAL_STORE_PATH", "veloshop.db"),

		RateLimitPerSec: getFloatEnv("RATE_LIMIT_PER_SEC", 10),
		RateLimitBurst:  getIntEnv("RATE_LIMIT_BURST", 20),

		FavoritesCheckTTL: getDurationEnv("FAVORITES_CHECK_TTL", 30*time.Second),

		// Business rules: 1000 max cart quantity
		MaxCartQuantity: getIntEnv("MAX_CART_QUANTITY", 1000),
	}

	cfg.Validate()
	return cfg
}

func (c *Config) Validate() {
	if c.APIBaseURL == "" {
		log.Fatal("CRITICAL: API_BASE_URL environment variable is required")
	}
	if c.JWTSecret == "" {
		log.Println("WARNING: No JWT secret configured, session tokens are checked for expiry only")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s, using fallback", key)
	}
	return fallback
}
