package penknot

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/phroun/penknot/badgerstore"
)

// Storage backends accepted in StorageConfig.Backend.
const (
	BackendMemory = "memory"
	BackendFS     = "fs"
	BackendBadger = "badger"
)

// Config is the YAML configuration for the editor and its library.
type Config struct {
	// SampleCount is the number of segments per curve sample table.
	SampleCount int `json:"sample_count" yaml:"sample_count"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Storage selects where saved documents go.
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// StorageConfig selects the document storage backend.
type StorageConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	Path    string `json:"path" yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		SampleCount: DefaultSampleCount,
		LogLevel:    "info",
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
	}
}

// LoadConfig reads a YAML file over the defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the editor cannot use.
func (c Config) Validate() error {
	if c.SampleCount < 1 {
		return fmt.Errorf("sample_count must be positive, got %d", c.SampleCount)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFS, BackendBadger:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return lvl, nil
}

// Logger builds a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Options returns editor options for this configuration.
func (c Config) Options(logger *slog.Logger) Options {
	return Options{Logger: logger, SampleCount: c.SampleCount}
}

// OpenLibrary initializes a library with the configured storage backend.
// The returned close function releases the backend.
func (c Config) OpenLibrary(logger *slog.Logger) (*Library, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	opts := LibraryOptions{Editor: c.Options(logger)}
	closer := func() error { return nil }

	switch c.Storage.Backend {
	case BackendFS:
		opts.ColdStoragePath = c.Storage.Path
	case BackendBadger:
		store, err := badgerstore.Open(badgerstore.Options{Path: c.Storage.Path, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		opts.ColdStorageBackend = store
		closer = store.Close
	}

	lib, err := Init(opts)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return lib, closer, nil
}
