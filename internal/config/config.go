package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Security SecurityConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	Storage  StorageConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Market   MarketConfig

	// SeedDemo inserts demo providers and venues on startup.
	SeedDemo bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds the identity token settings
type SecurityConfig struct {
	JWTSecret string
	JWTIssuer string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// StorageConfig describes the S3-compatible object store. Each logical bucket can be
// mapped to a physical bucket name.
type StorageConfig struct {
	Region             string
	Endpoint           string
	UsePathStyle       bool
	PublicBaseURL      string
	BrandsBucket       string
	VerificationBucket string
	VenuesBucket       string
}

// RedisConfig is optional; an empty URL disables the listing cache.
type RedisConfig struct {
	URL string
}

// NATSConfig is optional; an empty URL disables event publishing.
type NATSConfig struct {
	URL string
}

// MarketConfig tunes the marketplace views.
type MarketConfig struct {
	PollInterval  time.Duration
	ListingTTL    time.Duration
	RedirectAfter time.Duration
}

// Load reads configuration from environment variables. A local env file is
// loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load("config/local.env")

	cfg := &Config{}

	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	if err := cfg.loadServer(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	if err := cfg.loadStorage(); err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}
	if err := cfg.loadMarket(); err != nil {
		return nil, fmt.Errorf("load market config: %w", err)
	}

	cfg.Security.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Security.JWTIssuer = os.Getenv("JWT_ISSUER")
	cfg.Redis.URL = os.Getenv("REDIS_URL")
	cfg.NATS.URL = os.Getenv("NATS_URL")
	cfg.SeedDemo = strings.EqualFold(os.Getenv("SEED_DEMO"), "true")

	cfg.loadCORS()
	cfg.loadLogging()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadDatabase() error {
	c.Database.URL = os.Getenv("DATABASE_URL")
	if c.Database.URL != "" {
		return nil
	}

	c.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	c.Database.User = os.Getenv("DB_USER")
	c.Database.Password = os.Getenv("DB_PASSWORD")
	c.Database.Name = os.Getenv("DB_NAME")
	c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	c.Database.Port = port

	if c.Database.User != "" && c.Database.Name != "" {
		c.Database.URL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
			c.Database.SSLMode,
		)
	}
	return nil
}

func (c *Config) loadServer() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")

	if c.Server.ReadTimeout, err = getDuration("SERVER_READ_TIMEOUT", 15*time.Second); err != nil {
		return err
	}
	// Stream endpoints hold the connection open, so writes are unbounded by default.
	if c.Server.WriteTimeout, err = getDuration("SERVER_WRITE_TIMEOUT", 0); err != nil {
		return err
	}
	if c.Server.IdleTimeout, err = getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second); err != nil {
		return err
	}
	return nil
}

func (c *Config) loadStorage() error {
	c.Storage.Region = getEnvOrDefault("S3_REGION", "us-east-1")
	c.Storage.Endpoint = os.Getenv("S3_ENDPOINT")
	c.Storage.PublicBaseURL = strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/")
	c.Storage.BrandsBucket = getEnvOrDefault("S3_BUCKET_BRANDS", "brands")
	c.Storage.VerificationBucket = getEnvOrDefault("S3_BUCKET_VERIFICATION", "verification")
	c.Storage.VenuesBucket = getEnvOrDefault("S3_BUCKET_VENUES", "venues")

	if raw := os.Getenv("S3_USE_PATH_STYLE"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid S3_USE_PATH_STYLE: %w", err)
		}
		c.Storage.UsePathStyle = v
	}
	return nil
}

func (c *Config) loadMarket() error {
	var err error
	if c.Market.PollInterval, err = getDuration("POLL_INTERVAL", 5*time.Second); err != nil {
		return err
	}
	if c.Market.ListingTTL, err = getDuration("LISTING_CACHE_TTL", 30*time.Second); err != nil {
		return err
	}
	if c.Market.RedirectAfter, err = getDuration("ONBOARDING_REDIRECT_AFTER", 2*time.Second); err != nil {
		return err
	}
	return nil
}

func (c *Config) loadCORS() {
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		c.CORS.AllowedOrigins = []string{"http://localhost:5173"}
		return
	}
	for _, origin := range strings.Split(originsEnv, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			c.CORS.AllowedOrigins = append(c.CORS.AllowedOrigins, trimmed)
		}
	}
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "json")
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	if c.Database.URL == "" {
		errors = append(errors, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}

	if c.Security.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.Security.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "PORT must be between 1 and 65535")
	}

	if c.Storage.PublicBaseURL == "" {
		errors = append(errors, "S3_PUBLIC_BASE_URL is required")
	}
	if c.Storage.BrandsBucket == "" || c.Storage.VerificationBucket == "" || c.Storage.VenuesBucket == "" {
		errors = append(errors, "S3 bucket names must not be empty")
	}

	if c.Market.PollInterval <= 0 {
		errors = append(errors, "POLL_INTERVAL must be positive")
	}
	if c.Market.ListingTTL < 0 {
		errors = append(errors, "LISTING_CACHE_TTL must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(os.Getenv("ENV"))
	return env == "" || env == "development"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
