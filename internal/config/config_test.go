package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DataFile != "data.db" {
		t.Fatalf("default data file: %q", cfg.DataFile)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("default port: %d", cfg.Port)
	}
	if cfg.HTTPAddr != "" {
		t.Fatalf("http should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "minkdb.json")
	data := []byte(`{"dataFile":"/var/lib/minkdb/data.db","port":7000,"logLevel":"debug"}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataFile != "/var/lib/minkdb/data.db" {
		t.Fatalf("expected data file override, got %q", cfg.DataFile)
	}
	if cfg.Port != 7000 {
		t.Fatalf("expected 7000, got %d", cfg.Port)
	}
	if cfg.Host != DefaultHost {
		t.Fatalf("unset fields should keep defaults, got host %q", cfg.Host)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "minkdb.yaml")
	data := []byte("dataFile: other.db\nhttpAddr: \":8080\"\nmaxConnections: 8\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataFile != "other.db" {
		t.Fatalf("expected other.db, got %q", cfg.DataFile)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.MaxConnections != 8 {
		t.Fatalf("expected 8, got %d", cfg.MaxConnections)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("unset fields should keep defaults, got port %d", cfg.Port)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	file := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(file, []byte("{"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(file); err == nil {
		t.Fatal("expected error for malformed file")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("MINKDB_DATA_FILE", "env.db")
	t.Setenv("MINKDB_PORT", "7100")
	t.Setenv("MINKDB_LOG_LEVEL", "warn")
	if err := FromEnv(&cfg); err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.DataFile != "env.db" {
		t.Fatalf("env override data file")
	}
	if cfg.Port != 7100 {
		t.Fatalf("env override port")
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("env override log level")
	}
}

func TestFromEnvRejectsBadNumbers(t *testing.T) {
	cfg := Default()
	t.Setenv("MINKDB_PORT", "69o9")
	t.Setenv("MINKDB_MAX_CONNECTIONS", "not-a-number")

	err := FromEnv(&cfg)
	if err == nil {
		t.Fatal("expected an error for unparsable numbers")
	}
	for _, name := range []string{"MINKDB_PORT", "MINKDB_MAX_CONNECTIONS"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q does not name %s", err, name)
		}
	}
	if cfg.Port != DefaultPort || cfg.MaxConnections != DefaultMaxConnections {
		t.Fatalf("bad values should leave the fields unchanged, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.DataFile = ""
	cfg.Port = 70000
	cfg.MaxConnections = 0
	cfg.LogLevel = "loud"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation errors")
	}
}
