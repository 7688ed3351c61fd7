package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port              string
	Environment       string
	LogLevel          string
	AllowedOrigins    []string
	TrustProxyHeaders bool
	BaseURL           string

	DatabaseURL     string
	DatabaseReadURL string // Read replica URL for SELECT queries
	RedisURL        string

	JWTSecret string

	ImageKitPublicKey   string
	ImageKitPrivateKey  string
	ImageKitURLEndpoint string
	ImageKitFolder      string

	DefaultPhoneRegion string
	MaxUploadBytes     int64

	SubmitRateLimit  int
	SubmitRateWindow time.Duration
	FormRateLimit    int
	FormRateWindow   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       getEnv("ENVIRONMENT", "production"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:    parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		TrustProxyHeaders: getBoolEnv("TRUST_PROXY_HEADERS", false),
		BaseURL:           strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DatabaseReadURL: getEnv("DATABASE_READ_URL", getEnv("DATABASE_URL", "")), // Falls back to write DB if not set
		RedisURL:        getEnv("REDIS_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		ImageKitPublicKey:   getEnv("IMAGEKIT_PUBLIC_KEY", ""),
		ImageKitPrivateKey:  getEnv("IMAGEKIT_PRIVATE_KEY", ""),
		ImageKitURLEndpoint: getEnv("IMAGEKIT_URL_ENDPOINT", ""),
		ImageKitFolder:      getEnv("IMAGEKIT_FOLDER", "/eventmaster/qrcodes"),

		DefaultPhoneRegion: strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "FR")),
		MaxUploadBytes:     int64(getIntEnv("MAX_UPLOAD_BYTES", 10<<20)),

		SubmitRateLimit:  getIntEnv("SUBMIT_RATE_LIMIT", 10),
		SubmitRateWindow: getDurationEnv("SUBMIT_RATE_WINDOW", time.Minute),
		FormRateLimit:    getIntEnv("FORM_RATE_LIMIT", 5),
		FormRateWindow:   getDurationEnv("FORM_RATE_WINDOW", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs in a development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "local"
}

// Validate checks the settings required to serve traffic
func (c *Config) Validate() error {
	if c.SubmitRateLimit < 1 || c.FormRateLimit < 1 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.SubmitRateWindow <= 0 || c.FormRateWindow <= 0 {
		return fmt.Errorf("rate windows must be positive")
	}
	if c.IsDevelopment() {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	return nil
}

// ImageKitEnabled reports whether asset hosting credentials are configured
func (c *Config) ImageKitEnabled() bool {
	return c.ImageKitPrivateKey != ""
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv accepts Go durations ("90s") or bare seconds ("60")
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
