package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromDir(t *testing.T, dir string) *Config {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFromDir(t, t.TempDir())

	assert.Equal(t, "data/places.json", cfg.Sources.Places)
	assert.Equal(t, "data/tags.json", cfg.Sources.Tags)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "atlas.db", cfg.Store.Path)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocode.BaseURL)
	assert.Equal(t, 1.0, cfg.Geocode.RPS)
	assert.Equal(t, 256, cfg.Photos.CacheEntries)
	assert.Equal(t, 15.0, cfg.Map.FocusZoom)
	assert.Equal(t, 768.0, cfg.Layout.MobileBreakpointPx)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := `
sources:
  places: https://example.org/places.json
store:
  driver: postgres
  database_url: postgres://localhost/atlas
server:
  port: 9090
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg := loadFromDir(t, dir)
	assert.Equal(t, "https://example.org/places.json", cfg.Sources.Places)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/atlas", cfg.Store.DatabaseURL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, "data/tags.json", cfg.Sources.Tags)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ATLAS_SERVER_PORT", "7001")
	t.Setenv("ATLAS_GEOCODE_RPS", "0.5")

	cfg := loadFromDir(t, t.TempDir())
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, 0.5, cfg.Geocode.RPS)
}

func TestInitLogger_BadLevel(t *testing.T) {
	assert.Error(t, InitLogger(LogConfig{Level: "shout", Format: "json"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
