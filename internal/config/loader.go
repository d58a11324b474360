package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ASCENT_CONFIG is set
//  3. env (prefix ASCENT_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ASCENT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, wrapLoad(err)
		}
	}

	// Environment variables: ASCENT_ADDR, ASCENT_QUEUE_SIZE, ...
	// Keys keep their underscores to match the koanf struct tags.
	envProvider := env.Provider("ASCENT_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "ascent_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, wrapLoad(err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, wrapLoad(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.PointHistoryDays <= 0:
		return invalid("point_history_days must be positive")
	case c.LeaderboardSize <= 0:
		return invalid("leaderboard_size must be positive")
	case c.DefaultVersion < 0:
		return invalid("default_version must not be negative")
	case c.WorkerCount <= 0:
		return invalid("worker_count must be positive")
	}
	return nil
}
