package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/0xRadioAc7iv/minkdb/internal/logging"
)

const (
	DefaultDataFile       = "data.db"
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 6969
	DefaultMaxConnections = 64
	DefaultLogLevel       = "info"
)

// Config is the top-level configuration loaded from file/env/flags.
type Config struct {
	DataFile       string `json:"dataFile" yaml:"dataFile"`
	Host           string `json:"host" yaml:"host"`
	Port           int    `json:"port" yaml:"port"`
	HTTPAddr       string `json:"httpAddr" yaml:"httpAddr"`
	MaxConnections int    `json:"maxConnections" yaml:"maxConnections"`
	LogLevel       string `json:"logLevel" yaml:"logLevel"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataFile:       DefaultDataFile,
		Host:           DefaultHost,
		Port:           DefaultPort,
		MaxConnections: DefaultMaxConnections,
		LogLevel:       DefaultLogLevel,
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate reports every problem with cfg at once.
func (c Config) Validate() error {
	var errs []error
	if c.DataFile == "" {
		errs = append(errs, errors.New("dataFile is empty"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxConnections <= 0 {
		errs = append(errs, fmt.Errorf("maxConnections must be positive, got %d", c.MaxConnections))
	}
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("unknown logLevel %q", c.LogLevel))
	}
	return errors.Join(errs...)
}
