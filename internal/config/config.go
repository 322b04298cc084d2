// Package config loads budgetlens settings from TOML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/budgetlens/budgetlens/internal/logger"
)

// Environment overrides.
const (
	EnvToken    = "YNAB_TOKEN"
	EnvBudgetID = "YNAB_BUDGET_ID"
	EnvBaseURL  = "YNAB_BASE_URL"
	EnvLogLevel = "BUDGETLENS_LOG_LEVEL"
)

// Config holds all budgetlens configuration.
type Config struct {
	YNAB      YNABConfig      `toml:"ynab"`
	Cache     CacheConfig     `toml:"cache"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
	Reconcile ReconcileConfig `toml:"reconcile"`
}

// YNABConfig holds upstream API settings.
type YNABConfig struct {
	Token         string `toml:"token,omitempty"`
	BaseURL       string `toml:"base_url,omitempty"`
	DefaultBudget string `toml:"default_budget,omitempty"`
}

// CacheConfig controls the on-disk response cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	TTL     string `toml:"ttl"`
	Path    string `toml:"path,omitempty"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	MemoSize int    `toml:"memo_size"`
	MemoTTL  string `toml:"memo_ttl"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ReconcileConfig tunes scheduled/posted matching.
type ReconcileConfig struct {
	AmountTolerance int64   `toml:"amount_tolerance"`
	MinSimilarity   float64 `toml:"min_payee_similarity"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		YNAB: YNABConfig{
			BaseURL:       "https://api.ynab.com/v1",
			DefaultBudget: "last-used",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     "1h",
		},
		Server: ServerConfig{
			Addr:     "127.0.0.1:8787",
			MemoSize: 256,
			MemoTTL:  "1h",
		},
		Log: LogConfig{
			Level:  "info",
			Format: logger.FormatConsole,
		},
		Reconcile: ReconcileConfig{
			AmountTolerance: 1000,
			MinSimilarity:   80,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "budgetlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "budgetlens")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "budgetlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "budgetlens")
}

// CachePath returns the configured cache database path or the default one.
func (c Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(CacheDir(), "responses.db")
}

// Load reads the config file, returning defaults if it doesn't exist, then
// applies environment overrides.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom is Load for an explicit path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // config path is chosen by the local user
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	ApplyEnv(&cfg)
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file settings with environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvToken); v != "" {
		cfg.YNAB.Token = v
	}
	if v := os.Getenv(EnvBudgetID); v != "" {
		cfg.YNAB.DefaultBudget = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.YNAB.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.YNAB.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("ynab.base_url %q is not an absolute URL", c.YNAB.BaseURL))
	}
	if _, err := positiveDuration(c.Cache.TTL); err != nil {
		errs = append(errs, fmt.Errorf("cache.ttl: %w", err))
	}
	if _, err := positiveDuration(c.Server.MemoTTL); err != nil {
		errs = append(errs, fmt.Errorf("server.memo_ttl: %w", err))
	}
	if c.Server.MemoSize < 1 {
		errs = append(errs, fmt.Errorf("server.memo_size %d must be at least 1", c.Server.MemoSize))
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if !logger.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not a known level", c.Log.Level))
	}
	if f := strings.ToLower(c.Log.Format); f != logger.FormatConsole && f != logger.FormatJSON {
		errs = append(errs, fmt.Errorf("log.format %q must be %q or %q", c.Log.Format, logger.FormatConsole, logger.FormatJSON))
	}
	if c.Reconcile.AmountTolerance < 0 {
		errs = append(errs, fmt.Errorf("reconcile.amount_tolerance %d is negative", c.Reconcile.AmountTolerance))
	}
	if c.Reconcile.MinSimilarity < 0 || c.Reconcile.MinSimilarity > 100 {
		errs = append(errs, fmt.Errorf("reconcile.min_payee_similarity %.1f is outside 0..100", c.Reconcile.MinSimilarity))
	}

	return errors.Join(errs...)
}

// CacheTTL returns the parsed cache TTL, or one hour when unparseable.
func (c Config) CacheTTL() time.Duration {
	d, err := positiveDuration(c.Cache.TTL)
	if err != nil {
		return time.Hour
	}
	return d
}

// MemoTTL returns the parsed server memo TTL, or one hour when unparseable.
func (c Config) MemoTTL() time.Duration {
	d, err := positiveDuration(c.Server.MemoTTL)
	if err != nil {
		return time.Hour
	}
	return d
}

func positiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", s)
	}
	return d, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetToken returns the token from env var or config, in that order.
func GetToken(cfg Config) string {
	if key := os.Getenv(EnvToken); key != "" {
		return key
	}
	return cfg.YNAB.Token
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
