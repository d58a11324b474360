// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file/env on top.
// - External errors are wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DefaultVersion is the catalog version used when a project defines no
	// default of its own and a request does not pin one.
	DefaultVersion int `koanf:"default_version"`

	// PointHistoryDays bounds the point-history window, in days.
	PointHistoryDays int `koanf:"point_history_days"`

	// LeaderboardSize sets the number of entries returned by leaderboard
	// queries in both topTen and tenAroundMe modes.
	LeaderboardSize int `koanf:"leaderboard_size"`

	// TransitiveDependencies makes dependency resolution follow chained
	// prerequisites instead of stopping at the first level.
	TransitiveDependencies bool `koanf:"transitive_dependencies"`

	// RankZeroPointUsers includes users without any points in rankings.
	RankZeroPointUsers bool `koanf:"rank_zero_point_users"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of event workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// CatalogCacheSize bounds the catalog view cache (entries).
	CatalogCacheSize int `koanf:"catalog_cache_size"`

	// FetchTimeoutMS bounds each upstream data fetch, in milliseconds.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// ExpectedClientVersion is compared against versions reported by
	// skills clients; older clients are logged as outdated.
	ExpectedClientVersion string `koanf:"expected_client_version"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		DefaultVersion:         0,
		PointHistoryDays:       1825,
		LeaderboardSize:        10,
		TransitiveDependencies: false,
		RankZeroPointUsers:     true,
		EventQueueSize:         100_000,
		WorkerCount:            runtime.NumCPU() * 4,
		DedupeSize:             500_000,
		CatalogCacheSize:       256,
		FetchTimeoutMS:         2_000,
		ExpectedClientVersion:  "",
	}
}
