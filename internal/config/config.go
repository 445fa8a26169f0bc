// Package config holds the scanner configuration: API access, scan window,
// rule thresholds and storage settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config is the complete scanner configuration.
type Config struct {
	API        APIConfig       `toml:"api"`
	Scan       ScanConfig      `toml:"scan"`
	Thresholds ThresholdConfig `toml:"thresholds"`
	Storage    StorageConfig   `toml:"storage"`
}

// APIConfig controls outbound requests to the game platform.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`            // e.g. https://api.chess.com/pub/player
	Contact           string  `toml:"contact"`             // contact string placed in the User-Agent
	Timeout           string  `toml:"timeout"`             // per-request timeout (e.g. "20s")
	Retries           int     `toml:"retries"`             // attempts per resource
	BackoffBase       string  `toml:"backoff_base"`        // sleep = base * attempt
	RequestsPerSecond float64 `toml:"requests_per_second"` // 0 = unlimited
}

// ScanConfig controls which games are pulled and how batches run.
type ScanConfig struct {
	LookbackMonths int    `toml:"lookback_months"`
	GameMode       string `toml:"game_mode"` // time_class value kept, e.g. "daily"
	Concurrency    int    `toml:"concurrency"`
}

// ThresholdConfig holds every tunable of the scoring rules and aggregation.
type ThresholdConfig struct {
	UpsetMargin    int `toml:"upset_margin"`
	ShortGamePlies int `toml:"short_game_plies"`

	EloMinGames int     `toml:"elo_min_games"`
	EloRatio    float64 `toml:"elo_ratio"`

	EloGapMinTourn    int     `toml:"elo_gap_min_tourn"`
	EloGapMinNonTourn int     `toml:"elo_gap_min_non_tourn"`
	EloRatioGap       float64 `toml:"elo_ratio_gap"`

	SandbagMinLosses      int     `toml:"sandbag_min_losses"`
	SandbagBailRate       float64 `toml:"sandbag_bail_rate"`
	SandbagMargin         float64 `toml:"sandbag_margin"`
	SandbagMinTournLosses int     `toml:"sandbag_min_tourn_losses"`

	StreakLength int `toml:"streak_length"`
	UpsetCount   int `toml:"upset_count"`

	ShortWinRate float64 `toml:"short_win_rate"`
	ShortMinWins int     `toml:"short_min_wins"`
}

// StorageConfig controls the local SQLite store.
type StorageConfig struct {
	DBPath       string `toml:"db_path"`
	CacheEnabled bool   `toml:"cache_enabled"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "https://api.chess.com/pub/player",
			Contact:           "",
			Timeout:           "20s",
			Retries:           3,
			BackoffBase:       "1s",
			RequestsPerSecond: 3,
		},
		Scan: ScanConfig{
			LookbackMonths: 3,
			GameMode:       "daily",
			Concurrency:    1,
		},
		Thresholds: ThresholdConfig{
			UpsetMargin:    250,
			ShortGamePlies: 40,

			EloMinGames: 20,
			EloRatio:    2.0,

			EloGapMinTourn:    15,
			EloGapMinNonTourn: 15,
			EloRatioGap:       1.0,

			SandbagMinLosses:      6,
			SandbagBailRate:       0.60,
			SandbagMargin:         0.20,
			SandbagMinTournLosses: 3,

			StreakLength: 8,
			UpsetCount:   3,

			ShortWinRate: 0.70,
			ShortMinWins: 10,
		},
		Storage: StorageConfig{
			DBPath:       filepath.Join(homeDir(), ".susscan", "susscan.db"),
			CacheEnabled: false,
		},
	}
}

// Load reads a TOML file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv loads a .env file if present and overlays the recognised variables.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := firstEnv("SUSSCAN_CONTACT", "USER_EMAIL"); v != "" {
		c.API.Contact = v
	}
	if v := os.Getenv("SUSSCAN_API_BASE"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SUSSCAN_DB"); v != "" {
		c.Storage.DBPath = v
	}
}

// Save writes the configuration as TOML.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if _, err := c.RequestTimeout(); err != nil {
		return fmt.Errorf("invalid timeout %q: %w", c.API.Timeout, err)
	}
	if _, err := c.Backoff(); err != nil {
		return fmt.Errorf("invalid backoff base %q: %w", c.API.BackoffBase, err)
	}
	if c.API.Retries < 1 {
		return fmt.Errorf("retries must be at least 1: %d", c.API.Retries)
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative: %v", c.API.RequestsPerSecond)
	}
	if c.Scan.LookbackMonths < 1 {
		return fmt.Errorf("lookback months must be at least 1: %d", c.Scan.LookbackMonths)
	}
	if c.Scan.GameMode == "" {
		return fmt.Errorf("game mode is required")
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1: %d", c.Scan.Concurrency)
	}
	for name, v := range map[string]float64{
		"sandbag_bail_rate": c.Thresholds.SandbagBailRate,
		"sandbag_margin":    c.Thresholds.SandbagMargin,
		"short_win_rate":    c.Thresholds.ShortWinRate,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1]: %v", name, v)
		}
	}
	return nil
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.API.Timeout)
}

// Backoff returns the retry backoff base as a duration.
func (c *Config) Backoff() (time.Duration, error) {
	return time.ParseDuration(c.API.BackoffBase)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
