// Package config loads CLI configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the process-level settings the CLI needs.
type Config struct {
	// DBPath is the SQLite database file. CADENCE_DB.
	DBPath string
	// DefaultTier names the tier used when --tier is not given.
	// CADENCE_TIER.
	DefaultTier string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; a missing file is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DBPath:      envOr("CADENCE_DB", "cadence.db"),
		DefaultTier: envOr("CADENCE_TIER", "base"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
