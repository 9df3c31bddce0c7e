// Package config loads MinkDB runtime configuration. It exposes a Default()
// baseline, Load for JSON or YAML files and FromEnv for MINKDB_* overrides.
//
// Example:
//
//	cfg, err := config.Load("/etc/minkdb.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := config.FromEnv(&cfg); err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	store, err := core.Open(cfg.DataFile)
package config
