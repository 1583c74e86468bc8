package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/ephem"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4.0, cfg.Orbs.Wheel)
	assert.Equal(t, 5.0, cfg.Orbs.Interpretation)
	assert.Equal(t, chart.HouseEqual, cfg.HouseSystem())
	assert.Equal(t, ephem.ModeAuto, cfg.EphemerisMode())
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "natal.yaml", `
orbs:
  wheel: 3
  interpretation: 6
chart:
  house_system: whole
  include_node: false
observer:
  name: Paris
  lat: 48.8566
  lon: 2.3522
ephemeris:
  mode: almanac
  timeout: 5s
cache:
  max_entries: 10
  ttl: 30m
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3.0, cfg.Orbs.Wheel)
	assert.Equal(t, 6.0, cfg.Orbs.Interpretation)
	assert.Equal(t, chart.HouseWholeSign, cfg.HouseSystem())
	assert.False(t, cfg.Chart.IncludeNode)
	assert.Equal(t, "Paris", cfg.DefaultObserver().Name)
	assert.InDelta(t, 48.8566, cfg.DefaultObserver().LatDeg, 1e-9)
	assert.Equal(t, ephem.ModeAlmanac, cfg.EphemerisMode())
	assert.Equal(t, 5*time.Second, cfg.Ephemeris.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)

	// Unset keys keep their defaults.
	assert.Equal(t, ":8088", cfg.Server.Addr)
	assert.Equal(t, Default().Ephemeris.HorizonsURL, cfg.Ephemeris.HorizonsURL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_NoDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "orbs: [1, 2")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeFile(t, "bad.yaml", "chart:\n  house_system: regiomontanus\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "house_system")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("overrides file values", func(t *testing.T) {
		t.Setenv("LS_NATAL_WHEEL_ORB", "2.5")
		t.Setenv("LS_NATAL_HOUSE_SYSTEM", "placidus")
		t.Setenv("LS_NATAL_INCLUDE_NODE", "false")
		t.Setenv("LS_NATAL_LAT", "-33.87")
		t.Setenv("LS_NATAL_EPHEM", "horizons")
		t.Setenv("LS_NATAL_HORIZONS_TIMEOUT", "3s")
		t.Setenv("LS_NATAL_CACHE_MAX_ENTRIES", "5")
		t.Setenv("LS_NATAL_LOG_LEVEL", "warn")

		cfg := Default()
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, 2.5, cfg.Orbs.Wheel)
		assert.Equal(t, chart.HousePlacidus, cfg.HouseSystem())
		assert.False(t, cfg.Chart.IncludeNode)
		assert.Equal(t, -33.87, cfg.Observer.Lat)
		assert.Equal(t, ephem.ModeHorizons, cfg.EphemerisMode())
		assert.Equal(t, 3*time.Second, cfg.Ephemeris.Timeout)
		assert.Equal(t, 5, cfg.Cache.MaxEntries)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("blank values are ignored", func(t *testing.T) {
		t.Setenv("LS_NATAL_SERVER_ADDR", "  ")

		cfg := Default()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, ":8088", cfg.Server.Addr)
	})

	t.Run("malformed values are reported", func(t *testing.T) {
		t.Setenv("LS_NATAL_INTERPRETATION_ORB", "five")
		t.Setenv("LS_NATAL_CACHE_TTL", "soon")

		cfg := Default()
		err := cfg.applyEnvOverrides()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LS_NATAL_INTERPRETATION_ORB")
		assert.Contains(t, err.Error(), "LS_NATAL_CACHE_TTL")
		assert.Equal(t, 5.0, cfg.Orbs.Interpretation)
	})

	t.Run("env wins over file", func(t *testing.T) {
		t.Setenv("LS_NATAL_EPHEM", "almanac")
		path := writeFile(t, "natal.yaml", "ephemeris:\n  mode: horizons\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ephem.ModeAlmanac, cfg.EphemerisMode())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative wheel orb", func(c *Config) { c.Orbs.Wheel = -1 }, "orbs.wheel"},
		{"huge interpretation orb", func(c *Config) { c.Orbs.Interpretation = 40 }, "orbs.interpretation"},
		{"unknown house system", func(c *Config) { c.Chart.HouseSystem = "campanus" }, "house_system"},
		{"latitude off globe", func(c *Config) { c.Observer.Lat = 91 }, "observer"},
		{"unknown mode", func(c *Config) { c.Ephemeris.Mode = "swiss" }, "ephemeris.mode"},
		{"negative rate", func(c *Config) { c.Ephemeris.RateLimit = -1 }, "rate_limit"},
		{"zero cache entries", func(c *Config) { c.Cache.MaxEntries = 0 }, "cache.max_entries"},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Orbs.Wheel = 3
	cfg.Chart.IncludeNode = false
	cfg.Cache.MaxEntries = 9
	cfg.Ephemeris.Concurrency = 7
	cfg.Logging.File = "/tmp/natal.log"

	opts := cfg.NatalOptions()
	assert.Equal(t, 3.0, opts.WheelOrb)
	assert.False(t, opts.IncludeNode)

	assert.Equal(t, 9, cfg.StateConfig().MaxEntries)
	assert.Equal(t, 7, cfg.HorizonsOptions().Concurrency)
	assert.Equal(t, "/tmp/natal.log", cfg.LoggingOptions().File)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LS_NATAL_TEST_DOTENV=from-file\n"), 0o644))
	t.Setenv("LS_NATAL_TEST_DOTENV", "")
	os.Unsetenv("LS_NATAL_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("LS_NATAL_TEST_DOTENV"))
}
