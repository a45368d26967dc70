// ABOUTME: Environment configuration for the Atlas sync pipeline
// ABOUTME: Loads DB connection, API token, and tuning knobs from the process environment
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultAPIBaseURL = "https://api.atlas.so/v1"
	DefaultDBPort     = 5432
	DefaultDBSSLMode  = "require"
	DefaultPageSize   = 3000
	DefaultWorkers    = 10
)

// Config holds everything the pipeline reads from the environment.
type Config struct {
	APIBaseURL string
	APIToken   string

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	LogDir   string
	PageSize int
	Workers  int
}

// Load reads configuration from the environment (and a .env file if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL: getEnv("ATLAS_API_URL", DefaultAPIBaseURL),
		APIToken:   getEnv("ATLAS_TOKEN", ""),
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnvInt("DB_PORT", DefaultDBPort),
		DBName:     getEnv("DB_NAME", ""),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASS", ""),
		DBSSLMode:  getEnv("DB_SSLMODE", DefaultDBSSLMode),
		LogDir:     getEnv("LOG_DIR", defaultLogDir()),
		PageSize:   getEnvInt("SYNC_PAGE_SIZE", DefaultPageSize),
		Workers:    getEnvInt("BACKFILL_WORKERS", DefaultWorkers),
	}

	if cfg.APIToken == "" {
		return nil, fmt.Errorf("ATLAS_TOKEN environment variable is required")
	}
	for _, v := range []struct{ name, value string }{
		{"DB_HOST", cfg.DBHost},
		{"DB_NAME", cfg.DBName},
		{"DB_USER", cfg.DBUser},
		{"DB_PASS", cfg.DBPassword},
	} {
		if v.value == "" {
			return nil, fmt.Errorf("%s environment variable is required", v.name)
		}
	}

	return cfg, nil
}

func defaultLogDir() string {
	return filepath.Join(xdg.StateHome, "atlas-sync", "logs")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
