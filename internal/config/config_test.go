package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://goszakup.gov.kz/ru/search/lots", cfg.Scrape.BaseURL)
	assert.Equal(t, 2000, cfg.Scrape.CountRecord)
	assert.Equal(t, time.Second, cfg.Scrape.Delay())
	assert.Equal(t, 30*time.Second, cfg.Scrape.Timeout())
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.False(t, cfg.Store.Dedup)
	assert.Equal(t, "models", cfg.Scorer.ModelsDir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFileOverrides(t *testing.T) {
	dir := inTempDir(t)
	yaml := `
scrape:
  count_record: 500
  delay_secs: 2
store:
  driver: csv
  path: out/lots.csv
  dedup: true
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Scrape.CountRecord)
	assert.Equal(t, 2*time.Second, cfg.Scrape.Delay())
	assert.Equal(t, "csv", cfg.Store.Driver)
	assert.Equal(t, "out/lots.csv", cfg.Store.Path)
	assert.True(t, cfg.Store.Dedup)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	inTempDir(t)
	t.Setenv("LOTSCAN_STORE_DRIVER", "csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Store.Driver)
}

func TestInitLogger_BadLevel(t *testing.T) {
	assert.Error(t, InitLogger(LogConfig{Level: "noisy", Format: "json"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
