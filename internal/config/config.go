// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the escrow database (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Token ledger service (external value-transfer collaborator)
	TokenServiceURL string
	TokenAPIKey     string
	TokenAsset      string // Designated asset identity (e.g. "USDM")

	// EscrowAccount is this service's identity at the token ledger: the
	// holder of all custodied deposits.
	EscrowAccount string

	// Withdrawers are the principals granted the withdraw capability.
	// Principals double as account identities at the token ledger, so
	// withdrawals and rescues are pushed straight to the caller.
	// Grant administration happens outside this service; this is the static
	// projection the engine consults.
	Withdrawers []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ESCROW_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("ESCROW_PORT", 8002),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		TokenServiceURL: getEnv("TOKEN_SERVICE_URL", "http://localhost:9100"),
		TokenAPIKey:     getEnv("TOKEN_API_KEY", ""),
		TokenAsset:      getEnv("TOKEN_ASSET", "USDM"),
		EscrowAccount:   getEnv("ESCROW_ACCOUNT", "escrow"),
		Withdrawers:     getEnvAsList("ESCROW_WITHDRAWERS", "seller"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.EscrowAccount == "" {
		return fmt.Errorf("ESCROW_ACCOUNT must not be empty")
	}
	if c.TokenAsset == "" {
		return fmt.Errorf("TOKEN_ASSET must not be empty")
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
