package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Scan.LookbackMonths)
	assert.Equal(t, "daily", cfg.Scan.GameMode)
	assert.Equal(t, 250, cfg.Thresholds.UpsetMargin)
	assert.Equal(t, 40, cfg.Thresholds.ShortGamePlies)
	assert.Equal(t, 3, cfg.API.Retries)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Thresholds, cfg.Thresholds)
}

func TestLoad_OverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[scan]
lookback_months = 6

[thresholds]
upset_margin = 300
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Scan.LookbackMonths)
	assert.Equal(t, 300, cfg.Thresholds.UpsetMargin)
	// untouched keys keep their defaults
	assert.Equal(t, "daily", cfg.Scan.GameMode)
	assert.Equal(t, 2.0, cfg.Thresholds.EloRatio)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := DefaultConfig()
	cfg.API.Contact = "me@example.com"
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", got.API.Contact)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"bad timeout":     func(c *Config) { c.API.Timeout = "soon" },
		"zero retries":    func(c *Config) { c.API.Retries = 0 },
		"zero lookback":   func(c *Config) { c.Scan.LookbackMonths = 0 },
		"empty mode":      func(c *Config) { c.Scan.GameMode = "" },
		"rate above one":  func(c *Config) { c.Thresholds.SandbagBailRate = 1.5 },
		"zero concurrent": func(c *Config) { c.Scan.Concurrency = 0 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SUSSCAN_CONTACT", "")
	t.Setenv("USER_EMAIL", "fallback@example.com")
	t.Setenv("SUSSCAN_API_BASE", "http://localhost:9999")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "fallback@example.com", cfg.API.Contact)
	assert.Equal(t, "http://localhost:9999", cfg.API.BaseURL)
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	d, err := cfg.RequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, d)

	b, err := cfg.Backoff()
	require.NoError(t, err)
	assert.Equal(t, time.Second, b)
}
