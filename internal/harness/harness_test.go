package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			got := Run(t, path)
			assertGolden(t, name, got)
		})
	}
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typo.yaml")
	writeFile(t, path, `
name: typo
now: 2026-03-01T09:00:00Z
quue:
  owner: owner-1
`)

	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenario_RequiresNameAndNow(t *testing.T) {
	dir := t.TempDir()

	noName := filepath.Join(dir, "no_name.yaml")
	writeFile(t, noName, "now: 2026-03-01T09:00:00Z\n")
	_, err := LoadScenario(noName)
	assert.ErrorContains(t, err, "name")

	noNow := filepath.Join(dir, "no_now.yaml")
	writeFile(t, noNow, "name: no-now\n")
	_, err = LoadScenario(noNow)
	assert.ErrorContains(t, err, "now")
}

func TestLoadScenario_TierDefaultsToBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "min.yaml")
	writeFile(t, path, `
name: minimal
now: 2026-03-01T09:00:00Z
queue:
  owner: owner-1
`)

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "base", sc.Tier)
}
