package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

func invalid(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidConfig)
}

func wrapLoad(err error) error {
	return fmt.Errorf("%v: %w", err, ErrLoadConfig)
}
