// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir           string  // Base directory for the history database, always absolute
	Port              int     // HTTP listen port
	LogLevel          string  // zerolog level name
	DevMode           bool    // Pretty console logging
	PortfolioID       string  // Portfolio whose allocations drive the report
	PortfolioValue    float64 // Total portfolio value in USD for exposure figures
	LookbackWeeks     int     // Volatility window; 0 selects the engine default
	RecomputeSchedule string  // Cron schedule for report regeneration
	RefitSchedule     string  // Cron schedule for FBIS parameter refits
}

// Load reads configuration from environment variables, with .env overrides
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("SATID_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("SATID_PORT", 8080),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		PortfolioID:       getEnv("SATID_PORTFOLIO_ID", "main"),
		PortfolioValue:    getEnvAsFloat("SATID_PORTFOLIO_VALUE", 100000),
		LookbackWeeks:     getEnvAsInt("SATID_LOOKBACK_WEEKS", 0),
		RecomputeSchedule: getEnv("SATID_RECOMPUTE_SCHEDULE", "0 0 7 * * MON"),
		RefitSchedule:     getEnv("SATID_REFIT_SCHEDULE", "0 30 6 1 * *"),
	}

	if cfg.PortfolioValue <= 0 {
		return nil, fmt.Errorf("SATID_PORTFOLIO_VALUE must be positive, got %v", cfg.PortfolioValue)
	}

	return cfg, nil
}

// HistoryDBPath returns the history database location inside DataDir
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

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
