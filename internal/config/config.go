package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Feed ingestion configuration
	Feeds FeedConfig

	// Routing configuration
	Routing RoutingConfig

	// JWT configuration
	JWT JWTConfig

	// Admin account configuration
	Admin AdminConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver             string // sqlite, postgres, pgx
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// FeedConfig holds the location of the static feeds
type FeedConfig struct {
	GTFSDir         string
	MetroJSONPath   string
	IngestOnStartup bool
	RefreshSchedule string // six-field cron schedule, empty disables the job
}

// RoutingConfig holds graph weighting policy
type RoutingConfig struct {
	InterchangePenalty int
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// AdminConfig holds the single operator account
type AdminConfig struct {
	Username     string
	PasswordHash string // bcrypt
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver:             getEnv("DATABASE_DRIVER", "sqlite"),
			URL:                getEnv("DATABASE_URL", "file:transit.db"),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Feeds: FeedConfig{
			GTFSDir:         getEnv("GTFS_DIR", "data/GTFS"),
			MetroJSONPath:   getEnv("METRO_JSON_PATH", "data/DMRC_STATIONS.json"),
			IngestOnStartup: getEnvAsBool("INGEST_ON_STARTUP", true),
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", ""),
		},
		Routing: RoutingConfig{
			InterchangePenalty: getEnvAsInt("METRO_INTERCHANGE_PENALTY", 3),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "pgx":
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be 'sqlite', 'postgres' or 'pgx')", c.Database.Driver)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Routing.InterchangePenalty < 0 {
		return fmt.Errorf("METRO_INTERCHANGE_PENALTY must not be negative")
	}

	// Admin endpoints are only mounted when a password hash is configured
	if c.Admin.PasswordHash != "" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
		}
		if c.JWT.RefreshSecret == "" {
			return fmt.Errorf("JWT_REFRESH_SECRET is required when ADMIN_PASSWORD_HASH is set")
		}
	}

	return nil
}

// AdminEnabled reports whether the admin API should be exposed
func (c *Config) AdminEnabled() bool {
	return c.Admin.PasswordHash != ""
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
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
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
