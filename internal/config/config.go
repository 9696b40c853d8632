package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/idia-astro/ilifudb/internal/db"
)

// Config holds all configuration for ilifudb.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig selects and locates the user database.
type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level       string `toml:"level"`
	Format      string `toml:"format"`
	LogUseCases bool   `toml:"log_use_cases"`
}

// DefaultDir is ~/.ilifudb, falling back to ./.ilifudb when no home
// directory is available.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ilifudb"
	}
	return filepath.Join(home, ".ilifudb")
}

// DefaultPath is the config file read when ILIFUDB_CONFIG is unset.
func DefaultPath() string {
	if v := os.Getenv("ILIFUDB_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(DefaultDir(), "config.toml")
}

// DefaultConfig returns a Config for a local SQLite database.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver: string(db.DialectSQLite),
			DSN:    filepath.Join(DefaultDir(), "ilifu.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the TOML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ILIFUDB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("ILIFUDB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("ILIFUDB_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ILIFUDB_LOG_USE_CASES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.LogUseCases = b
		}
	}
}

// Validate rejects unknown drivers, log levels and formats.
func (c Config) Validate() error {
	var problems []string
	if _, err := db.ParseDialect(c.Database.Driver); err != nil {
		problems = append(problems, err.Error())
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		problems = append(problems, "database dsn is required")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("unknown log format %q (want text or json)", c.Log.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DB returns the database settings in the form db.Open takes.
func (c Config) DB() db.Config {
	return db.Config{Driver: c.Database.Driver, DSN: c.Database.DSN}
}

// NewLogger builds the process logger writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
