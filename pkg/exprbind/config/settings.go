package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Errors returned while loading settings.
var (
	// ErrUnsupportedFormat is returned for files that are neither YAML nor
	// JSON.
	ErrUnsupportedFormat = errors.New("unsupported file extension")

	// ErrInvalidSetting is returned when a setting is out of range.
	ErrInvalidSetting = errors.New("invalid setting")
)

// Defaults.
const (
	DefaultMaxCycles = 1000
	DefaultCacheSize = 256
	DefaultInterval  = 100 * time.Millisecond
)

// Settings configures an exprbind delegate and its runtime loop.
//
// Keys in a settings file:
//
//	strict: true          # fail writes to unassignable expressions
//	max_cycles: 1000      # dirty-check cycles per checkpoint
//	cache_size: 256       # parsed expressions kept
//	interval: 100ms       # checkpoint ticker of the runtime loop
//	log_level: info       # debug, info, warn, error
//	snapshot_path: ""     # SQLite file for model snapshots; empty disables
type Settings struct {
	Strict       bool
	MaxCycles    int
	CacheSize    int
	Interval     time.Duration
	LogLevel     slog.Level
	SnapshotPath string
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		Strict:    true,
		MaxCycles: DefaultMaxCycles,
		CacheSize: DefaultCacheSize,
		Interval:  DefaultInterval,
		LogLevel:  slog.LevelInfo,
	}
}

// FromConfig reads Settings from c, starting from Default.
func FromConfig(c Config) (Settings, error) {
	s := Default()
	s.Strict = c.Bool("strict", s.Strict)
	s.MaxCycles = c.Int("max_cycles", s.MaxCycles)
	s.CacheSize = c.Int("cache_size", s.CacheSize)
	s.Interval = c.Duration("interval", s.Interval)
	s.SnapshotPath = c.String("snapshot_path", s.SnapshotPath)

	if level := c.String("log_level", ""); level != "" {
		if err := s.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return Settings{}, fmt.Errorf("%w: log_level: %v", ErrInvalidSetting, err)
		}
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads Settings from a YAML or JSON file.
func Load(path string) (Settings, error) {
	c, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	return FromConfig(c)
}

// Validate checks ranges.
func (s Settings) Validate() error {
	var errs []error
	if s.MaxCycles <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_cycles must be positive, got %d", ErrInvalidSetting, s.MaxCycles))
	}
	if s.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size must be positive, got %d", ErrInvalidSetting, s.CacheSize))
	}
	if s.Interval < 0 {
		errs = append(errs, fmt.Errorf("%w: interval must not be negative, got %s", ErrInvalidSetting, s.Interval))
	}
	return errors.Join(errs...)
}
