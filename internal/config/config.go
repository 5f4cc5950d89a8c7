package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved dex configuration.
type Config struct {
	APIBase           string
	PageSize          int
	CatalogSize       int
	SearchBatch       int
	SearchLimit       int
	MinQueryLength    int
	Debounce          time.Duration
	Concurrency       int
	RequestsPerSecond float64
	Burst             int
	RequestTimeout    time.Duration
	ProbeInterval     time.Duration
	DataDir           string
	LogFile           string
	LogLevel          slog.Level
}

const (
	defaultConfigPath     = "~/.config/dex/config.toml"
	defaultAPIBase        = "https://pokeapi.co/api/v2/pokemon"
	defaultPageSize       = 20
	defaultCatalogSize    = 1025
	defaultSearchBatch    = 1000
	defaultSearchLimit    = 50
	defaultMinQueryLength = 2
	defaultDebounce       = 500 * time.Millisecond
	defaultConcurrency    = 10
	defaultRPS            = 20
	defaultBurst          = 10
	defaultRequestTimeout = 10 * time.Second
	defaultProbeInterval  = 15 * time.Second
	defaultDataDir        = "~/.local/share/dex"
	defaultLogFile        = "~/.local/state/dex/dex.log"
)

// EnvPath names the environment variable that overrides the default config path.
const EnvPath = "DEX_CONFIG"

type rawConfig struct {
	APIBase           string   `toml:"api_base"`
	PageSize          *int     `toml:"page_size"`
	CatalogSize       *int     `toml:"catalog_size"`
	SearchBatch       *int     `toml:"search_batch"`
	SearchLimit       *int     `toml:"search_limit"`
	MinQueryLength    *int     `toml:"min_query_length"`
	Debounce          string   `toml:"debounce"`
	Concurrency       *int     `toml:"concurrency"`
	RequestsPerSecond *float64 `toml:"requests_per_second"`
	Burst             *int     `toml:"burst"`
	RequestTimeout    string   `toml:"request_timeout"`
	ProbeInterval     string   `toml:"probe_interval"`
	DataDir           string   `toml:"data_dir"`
	LogFile           string   `toml:"log_file"`
	LogLevel          string   `toml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:           defaultAPIBase,
		PageSize:          defaultPageSize,
		CatalogSize:       defaultCatalogSize,
		SearchBatch:       defaultSearchBatch,
		SearchLimit:       defaultSearchLimit,
		MinQueryLength:    defaultMinQueryLength,
		Debounce:          defaultDebounce,
		Concurrency:       defaultConcurrency,
		RequestsPerSecond: defaultRPS,
		Burst:             defaultBurst,
		RequestTimeout:    defaultRequestTimeout,
		ProbeInterval:     defaultProbeInterval,
		DataDir:           mustExpand(defaultDataDir),
		LogFile:           mustExpand(defaultLogFile),
		LogLevel:          slog.LevelInfo,
	}
}

// Load locates and parses the dex config, falling back to defaults when missing.
// An empty path means $DEX_CONFIG, then ~/.config/dex/config.toml.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal([]byte(os.ExpandEnv(string(bytes))), &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := raw.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (r rawConfig) apply(cfg *Config) error {
	if v := strings.TrimSpace(r.APIBase); v != "" {
		cfg.APIBase = v
	}
	setInt(&cfg.PageSize, r.PageSize)
	setInt(&cfg.CatalogSize, r.CatalogSize)
	setInt(&cfg.SearchBatch, r.SearchBatch)
	setInt(&cfg.SearchLimit, r.SearchLimit)
	setInt(&cfg.MinQueryLength, r.MinQueryLength)
	setInt(&cfg.Concurrency, r.Concurrency)
	setInt(&cfg.Burst, r.Burst)
	if r.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *r.RequestsPerSecond
	}

	var err error
	if cfg.Debounce, err = parseDuration("debounce", r.Debounce, cfg.Debounce); err != nil {
		return err
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", r.RequestTimeout, cfg.RequestTimeout); err != nil {
		return err
	}
	if cfg.ProbeInterval, err = parseDuration("probe_interval", r.ProbeInterval, cfg.ProbeInterval); err != nil {
		return err
	}

	if v := strings.TrimSpace(r.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if v := strings.TrimSpace(r.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(r.LogLevel); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIBase, validation.Required),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(200)),
		validation.Field(&c.CatalogSize, validation.Min(0)),
		validation.Field(&c.SearchBatch, validation.Required, validation.Min(1)),
		validation.Field(&c.SearchLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.MinQueryLength, validation.Min(0)),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.RequestsPerSecond, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Required, validation.Min(1)),
		validation.Field(&c.RequestTimeout, validation.Required),
		validation.Field(&c.ProbeInterval, validation.Required),
		validation.Field(&c.DataDir, validation.Required),
	)
}

// SnapshotPath returns the location of the offline snapshot database.
func (c Config) SnapshotPath() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return filepath.Join(mustExpand(defaultDataDir), "dex.db")
	}
	return filepath.Join(c.DataDir, "dex.db")
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		if env := strings.TrimSpace(os.Getenv(EnvPath)); env != "" {
			return expandPath(env)
		}
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
