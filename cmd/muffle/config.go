package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/scan"
	"github.com/fwojciec/muffle/site"
	"gopkg.in/yaml.v3"
)

// Ledger kinds accepted by the ledger config key.
const (
	LedgerExact = "exact"
	LedgerBloom = "bloom"
)

// DefaultRefresh is how often watch re-reads settings written by other
// muffle processes.
const DefaultRefresh = 2 * time.Second

// Config is the contents of the config file.
type Config struct {
	DB          string        `yaml:"db"`
	LogLevel    string        `yaml:"log_level"`
	Throttle    time.Duration `yaml:"throttle"`
	Frame       time.Duration `yaml:"frame"`
	Fade        time.Duration `yaml:"fade"`
	Refresh     time.Duration `yaml:"refresh"`
	Ledger      string        `yaml:"ledger"`
	LedgerCap   int           `yaml:"ledger_cap"`
	Headless    bool          `yaml:"headless"`
	ScanGeneric bool          `yaml:"scan_generic"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		DB:        defaultDBPath(),
		LogLevel:  "info",
		Throttle:  scan.DefaultThrottle,
		Frame:     scan.DefaultFrame,
		Fade:      site.DefaultFadeDuration,
		Refresh:   DefaultRefresh,
		Ledger:    LedgerExact,
		LedgerCap: scan.DefaultLedgerCap,
	}
}

// LoadConfig reads the config file at path on top of the defaults. A missing
// file is not an error. MUFFLE_DB overrides the db key.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, muffle.Errorf(muffle.EINVALID, "invalid config %s: %v", path, err)
		}
	}

	if db := os.Getenv("MUFFLE_DB"); db != "" {
		cfg.DB = db
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Ledger {
	case LedgerExact, LedgerBloom:
	default:
		return muffle.Errorf(muffle.EINVALID, "ledger must be %q or %q, got %q", LedgerExact, LedgerBloom, c.Ledger)
	}
	if c.LedgerCap <= 0 {
		return muffle.Errorf(muffle.EINVALID, "ledger_cap must be positive")
	}
	if c.Throttle < 0 || c.Frame < 0 || c.Fade < 0 || c.Refresh < 0 {
		return muffle.Errorf(muffle.EINVALID, "durations must not be negative")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, muffle.Errorf(muffle.EINVALID, "invalid log level %q", s)
	}
	return level, nil
}

func defaultDBPath() string {
	dir := muffleDir()
	if dir == "" {
		return "muffle.db"
	}
	return filepath.Join(dir, "muffle.db")
}

func defaultConfigPath() string {
	if path := os.Getenv("MUFFLE_CONFIG"); path != "" {
		return path
	}
	dir := muffleDir()
	if dir == "" {
		return "config.yaml"
	}
	return filepath.Join(dir, "config.yaml")
}

func muffleDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".muffle")
}
