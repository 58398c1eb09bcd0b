package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ",", cfg.Source.Delimiter)
	assert.True(t, cfg.Source.Header)
	assert.Equal(t, 0.2, cfg.Split.TestFraction)
	assert.Equal(t, int64(1), cfg.Split.Seed)
	assert.Equal(t, 5*time.Minute, cfg.Search.Budget.Std())
	assert.Equal(t, 0.25, cfg.Search.HoldoutFraction)
	assert.Equal(t, "model.gob", cfg.Artifact.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	raw := `
source:
  path: /data/violations.csv
  delimiter: ";"
split:
  testFraction: 0.3
  seed: 99
search:
  budget: 30s
  workers: 4
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/violations.csv", cfg.Source.Path)
	assert.Equal(t, ";", cfg.Source.Delimiter)
	assert.Equal(t, 0.3, cfg.Split.TestFraction)
	assert.Equal(t, int64(99), cfg.Split.Seed)
	assert.Equal(t, 30*time.Second, cfg.Search.Budget.Std())
	assert.Equal(t, 4, cfg.Search.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, 0.25, cfg.Search.HoldoutFraction)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("INSPECTSCORE_SOURCE_PATH", "/tmp/export.csv")
	t.Setenv("INSPECTSCORE_SEARCH_BUDGET", "90s")
	t.Setenv("INSPECTSCORE_SEED", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/export.csv", cfg.Source.Path)
	assert.Equal(t, 90*time.Second, cfg.Search.Budget.Std())
	assert.Equal(t, int64(7), cfg.Split.Seed)
}

func TestLoadRejectsBadFractions(t *testing.T) {
	raw := "split:\n  testFraction: 1.5\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
