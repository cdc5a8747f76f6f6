// Package config provides configuration management for the posting engine.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Ledger LedgerConfig
	Seed   SeedConfig
	Debug  bool
}

// LedgerConfig represents posting-engine configuration.
type LedgerConfig struct {
	DBPath          string
	CompanyID       int64
	BankAccountCode string
	BankAccountName string
	CreatedBy       string
}

// SeedConfig points at the YAML seed files for chart and rules bootstrap.
type SeedConfig struct {
	ChartFile string
	RulesFile string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	companyID, err := parseInt64Env("LEDGER_COMPANY_ID", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_COMPANY_ID: %w", err)
	}

	config := &Config{
		Ledger: LedgerConfig{
			DBPath:          getEnvOrDefault("LEDGER_DB_PATH", "./data/ledger.db"),
			CompanyID:       companyID,
			BankAccountCode: getEnvOrDefault("LEDGER_BANK_ACCOUNT_CODE", "1000-001"),
			BankAccountName: getEnvOrDefault("LEDGER_BANK_ACCOUNT_NAME", "Bank Account"),
			CreatedBy:       getEnvOrDefault("LEDGER_CREATED_BY", "auto-post"),
		},
		Seed: SeedConfig{
			ChartFile: os.Getenv("LEDGER_CHART_FILE"),
			RulesFile: os.Getenv("LEDGER_RULES_FILE"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks that the named fields are set.
func (c *Config) Validate(required ...string) error {
	var missing []string

	for _, key := range required {
		var ok bool
		switch key {
		case "dbPath":
			ok = c.Ledger.DBPath != ""
		case "companyId":
			ok = c.Ledger.CompanyID != 0
		case "bankAccountCode":
			ok = c.Ledger.BankAccountCode != ""
		case "chartFile":
			ok = c.Seed.ChartFile != ""
		case "rulesFile":
			ok = c.Seed.RulesFile != ""
		default:
			return fmt.Errorf("unknown configuration key: %s", key)
		}
		if !ok {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseInt64Env parses an int64 from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseInt64Env(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}
