// Package config defines service configuration and its loading.
//
// Conventions:
// - New() returns a Config filled with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validate reports problems wrapped in ErrInvalidConfig.
package config

import (
	"fmt"
	"net/url"
	"runtime"

	"github.com/lorkus/scholarledger/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFile, when set, also writes logs to a rotated file.
	LogFile string `koanf:"log_file"`
	// LogJSON switches log records to JSON.
	LogJSON bool `koanf:"log_json"`
	// Environment is attached to every metric as a constant label.
	Environment string `koanf:"environment"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory sync job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of sync workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the sync request id cache. Reward ids are deduplicated
	// per feed call and are not bounded by it.
	DedupeSize int `koanf:"dedupe_size"`

	// FeedBaseURL is the game API root.
	FeedBaseURL string `koanf:"feed_base_url"`
	// PriceURL serves the token price snapshot.
	PriceURL string `koanf:"price_url"`
	// FeedTimeoutMS caps a single upstream request.
	FeedTimeoutMS int `koanf:"feed_timeout_ms"`
	// FeedRPS and FeedBurst rate-limit upstream requests.
	FeedRPS   float64 `koanf:"feed_rps"`
	FeedBurst int     `koanf:"feed_burst"`
	// FeedPageSize is the reward history page length.
	FeedPageSize int `koanf:"feed_page_size"`

	// RefreshIntervalS is how often season and price snapshots are refreshed.
	RefreshIntervalS int `koanf:"refresh_interval_s"`

	// DatabaseURL selects the PostgreSQL store; empty keeps records in memory.
	DatabaseURL string `koanf:"database_url"`

	// ScholarPct is the default scholar share in percent.
	ScholarPct float64 `koanf:"scholar_pct"`
	// PayoutCurrency is the default payout currency.
	PayoutCurrency string `koanf:"payout_currency"`

	// RankedCategories and BrawlCategories classify reward types.
	RankedCategories []string `koanf:"ranked_categories"`
	BrawlCategories  []string `koanf:"brawl_categories"`

	// PriceCeilings override the per-token sanity ceilings.
	PriceCeilings map[string]float64 `koanf:"price_ceilings"`

	// PointSchemes add or replace series points schemes.
	PointSchemes []scoring.Scheme `koanf:"point_schemes"`

	// MaxLeaderboardRows caps series leaderboard responses.
	MaxLeaderboardRows int `koanf:"max_leaderboard_rows"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Environment:        "dev",
		Addr:               ":9080",
		QueueSize:          10_000,
		WorkerCount:        runtime.NumCPU() * 2,
		DedupeSize:         200_000,
		FeedBaseURL:        "https://api.splinterlands.com",
		PriceURL:           "https://prices.splinterlands.com/prices",
		FeedTimeoutMS:      20_000,
		FeedRPS:            5,
		FeedBurst:          5,
		FeedPageSize:       500,
		RefreshIntervalS:   300,
		ScholarPct:         50,
		PayoutCurrency:     "USD",
		RankedCategories:   []string{"modern", "wild", "survival"},
		BrawlCategories:    []string{"brawl"},
		PriceCeilings:      map[string]float64{},
		MaxLeaderboardRows: 500,
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ScholarPct < 0 || c.ScholarPct > 100:
		return fmt.Errorf("%w: scholar_pct must be within 0..100, got %v", ErrInvalidConfig, c.ScholarPct)
	case c.FeedRPS <= 0:
		return fmt.Errorf("%w: feed_rps must be positive", ErrInvalidConfig)
	case c.RefreshIntervalS <= 0:
		return fmt.Errorf("%w: refresh_interval_s must be positive", ErrInvalidConfig)
	}
	for _, raw := range []string{c.FeedBaseURL, c.PriceURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: invalid url %q", ErrInvalidConfig, raw)
		}
	}
	return nil
}
