package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// FromEnv overlays MINKDB_* environment variables onto cfg. Numeric values
// that do not parse are reported and leave the field unchanged.
func FromEnv(cfg *Config) error {
	var errs []error

	if v := os.Getenv("MINKDB_DATA_FILE"); v != "" {
		cfg.DataFile = v
	}
	if v := os.Getenv("MINKDB_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("MINKDB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		} else {
			errs = append(errs, fmt.Errorf("MINKDB_PORT: %w", err))
		}
	}
	if v := os.Getenv("MINKDB_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("MINKDB_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConnections = n
		} else {
			errs = append(errs, fmt.Errorf("MINKDB_MAX_CONNECTIONS: %w", err))
		}
	}
	if v := os.Getenv("MINKDB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return errors.Join(errs...)
}
