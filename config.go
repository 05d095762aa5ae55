package bbs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings shared by the API server and the client
// commands. Every field has a working default so the zero configuration runs
// in local mode, like the original site without an API URL.
type Config struct {
	// Listen is the API server bind address.
	Listen string `yaml:"listen"`
	// Database is the server's DSN: a SQLite path by default, or a
	// postgres:// URL for the PostgreSQL backend.
	Database string `yaml:"database"`
	// DataDir holds the on-device snapshot and counter files.
	DataDir string `yaml:"data_dir"`
	// APIURL switches the client into remote mode when non-empty.
	APIURL string `yaml:"api_url"`
	// RequestTimeout bounds each remote call, e.g. "15s".
	RequestTimeout string `yaml:"request_timeout"`
}

const defaultRequestTimeout = 15 * time.Second

// DefaultConfig returns the local-mode defaults.
func DefaultConfig() Config {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return Config{
		Listen:   ":8787",
		Database: "legacyhp.db",
		DataDir:  filepath.Join(dir, "legacyhp"),
	}
}

// LoadConfig reads a YAML config file and applies LEGACYHP_* environment
// overrides on top. An empty path skips the file and yields defaults plus
// environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	for _, o := range []struct {
		env string
		dst *string
	}{
		{"LEGACYHP_LISTEN", &c.Listen},
		{"LEGACYHP_DATABASE", &c.Database},
		{"LEGACYHP_DATA_DIR", &c.DataDir},
		{"LEGACYHP_API_URL", &c.APIURL},
		{"LEGACYHP_REQUEST_TIMEOUT", &c.RequestTimeout},
	} {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// Timeout returns the parsed request timeout, falling back to the default
// when unset or unparsable.
func (c Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return defaultRequestTimeout
	}
	return d
}

// OpenDatabase opens the server store cfg.Database points at: PostgreSQL for
// postgres:// URLs, SQLite otherwise. The returned func closes the store.
func OpenDatabase(ctx context.Context, cfg Config) (ServerStore, func() error, error) {
	var (
		st  ServerStore
		err error
	)
	if strings.HasPrefix(cfg.Database, "postgres://") || strings.HasPrefix(cfg.Database, "postgresql://") {
		st, err = OpenPostgresStore(ctx, cfg.Database)
	} else {
		st, err = OpenSQLiteStore(cfg.Database)
	}
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() error {
		if c, ok := st.(io.Closer); ok {
			return c.Close()
		}
		return nil
	}
	return st, closeFn, nil
}
