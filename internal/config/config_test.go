package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CADENCE_DB", "")
	t.Setenv("CADENCE_TIER", "")

	cfg := Load()
	assert.Equal(t, "cadence.db", cfg.DBPath)
	assert.Equal(t, "base", cfg.DefaultTier)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CADENCE_DB", "/tmp/other.db")
	t.Setenv("CADENCE_TIER", "plus")

	cfg := Load()
	assert.Equal(t, "/tmp/other.db", cfg.DBPath)
	assert.Equal(t, "plus", cfg.DefaultTier)
}
