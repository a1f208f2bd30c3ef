// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

// Package config loads the dataloader configuration.
//
// Values are layered with koanf, later sources overriding earlier ones:
// built-in defaults, an optional YAML file, the DATABASE_URL environment
// variable and finally command-line flags the user set explicitly.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// DatabaseURLEnv names the environment variable overriding database.url.
const DatabaseURLEnv = "DATABASE_URL"

// maxCostParam is the widest value the INTEGER cost columns store.
const maxCostParam = math.MaxInt32

// Config is the complete dataloader configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Executor ExecutorConfig `koanf:"executor"`
	Log      LogConfig      `koanf:"log"`
}

// DatabaseConfig selects and sizes the database connection.
type DatabaseConfig struct {
	// Driver is "postgres" or "mysql".
	Driver string `koanf:"driver"`

	// URL is a PostgreSQL connection URL or a MySQL DSN.
	URL string `koanf:"url"`

	// MaxConns bounds the connection pool. Zero keeps the driver default.
	MaxConns int `koanf:"max_conns"`
}

// AuthConfig holds the Argon2id cost of newly hashed passwords.
type AuthConfig struct {
	Iterations uint32 `koanf:"iterations"`
	MemoryKiB  uint32 `koanf:"memory_kib"`
}

// ExecutorConfig sizes the transaction executor.
type ExecutorConfig struct {
	Workers    int           `koanf:"workers"`
	MaxRetries uint64        `koanf:"max_retries"`
	RetryBase  time.Duration `koanf:"retry_base"`
}

// LogConfig controls log output.
type LogConfig struct {
	// Format is "json" or "text".
	Format string `koanf:"format"`

	// Level is one of debug, info, warn or error.
	Level string `koanf:"level"`
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"database.driver":      "postgres",
		"database.url":         "",
		"database.max_conns":   10,
		"auth.iterations":      3,
		"auth.memory_kib":      65536,
		"executor.workers":     8,
		"executor.max_retries": 3,
		"executor.retry_base":  "10ms",
		"log.format":           "json",
		"log.level":            "info",
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"db-driver":       "database.driver",
	"db-url":          "database.url",
	"db-max-conns":    "database.max_conns",
	"hash-iterations": "auth.iterations",
	"hash-memory-kib": "auth.memory_kib",
	"workers":         "executor.workers",
	"max-retries":     "executor.max_retries",
	"retry-base":      "executor.retry_base",
	"log-format":      "log.format",
	"log-level":       "log.level",
}

// RegisterFlags adds the configuration flags to fs. Flag defaults are
// placeholders; only flags the user sets override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("db-driver", "", "database driver (postgres or mysql)")
	fs.String("db-url", "", "database connection URL or DSN (overrides "+DatabaseURLEnv+")")
	fs.Int("db-max-conns", 0, "maximum database connections")
	fs.Uint32("hash-iterations", 0, "argon2id iterations for new passwords")
	fs.Uint32("hash-memory-kib", 0, "argon2id memory in KiB for new passwords")
	fs.Int("workers", 0, "concurrent transactions")
	fs.Uint64("max-retries", 0, "retries of a transaction after a serialization failure")
	fs.Duration("retry-base", 0, "first retry backoff")
	fs.String("log-format", "", "log format (json or text)")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
}

// Load builds a Config from the defaults, the YAML file at path (if not
// empty), the environment and the flags in fs (if not nil).
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "file").
				With("path", path).
				Wrap(err)
		}
	}

	if url := os.Getenv(DatabaseURLEnv); url != "" {
		if err := k.Load(confmap.Provider(map[string]any{"database.url": url}, "."), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal").Wrap(err)
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	return &cfg, nil
}

// Validate checks that the configuration is usable. A database URL is not
// required here since some commands never connect.
func (c *Config) Validate() error {
	var problems []string
	if c.Database.Driver != "postgres" && c.Database.Driver != "mysql" {
		problems = append(problems, fmt.Sprintf("database.driver must be 'postgres' or 'mysql', got %q", c.Database.Driver))
	}
	if c.Database.MaxConns < 0 {
		problems = append(problems, "database.max_conns must not be negative")
	}
	if c.Auth.Iterations == 0 || c.Auth.Iterations > maxCostParam {
		problems = append(problems, fmt.Sprintf("auth.iterations must be between 1 and %d", maxCostParam))
	}
	if c.Auth.MemoryKiB == 0 || c.Auth.MemoryKiB > maxCostParam {
		problems = append(problems, fmt.Sprintf("auth.memory_kib must be between 1 and %d", maxCostParam))
	}
	if c.Executor.Workers <= 0 {
		problems = append(problems, "executor.workers must be positive")
	}
	if c.Executor.RetryBase <= 0 {
		problems = append(problems, "executor.retry_base must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		problems = append(problems, fmt.Sprintf("log.format must be 'json' or 'text', got %q", c.Log.Format))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	if len(problems) > 0 {
		return oops.Code("CONFIG_INVALID").
			With("problems", problems).
			Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RequireDatabaseURL reports CONFIG_INVALID if no database URL is set.
func (c *Config) RequireDatabaseURL() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database.url is required (set it in the config file, %s or --db-url)", DatabaseURLEnv)
	}
	return nil
}
