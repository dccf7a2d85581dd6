// Package config loads exprc runtime settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/roach88/exprc/internal/scan"
)

// Config is the root of an exprc configuration file.
type Config struct {
	Pushdown Pushdown `yaml:"pushdown"`
	Scan     Scan     `yaml:"scan"`
	Store    Store    `yaml:"store"`
	Log      Log      `yaml:"log"`
}

// Pushdown controls predicate pushdown.
type Pushdown struct {
	// OnMismatch is "fail" or "residual". With "residual", a WHERE clause
	// whose literals cannot be encoded for the index is filtered per row.
	OnMismatch string `yaml:"on_mismatch"`
}

// Scan controls parallel row evaluation.
type Scan struct {
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
}

// Store locates the SQLite database.
type Store struct {
	// Path is a file path or ":memory:".
	Path string `yaml:"path"`
}

// Log configures the zap logger.
type Log struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "console" or "json".
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	sc := scan.DefaultConfig()
	return Config{
		Pushdown: Pushdown{OnMismatch: string(sc.OnMismatch)},
		Scan:     Scan{Workers: sc.Workers, BatchSize: sc.BatchSize},
		Store:    Store{Path: ":memory:"},
		Log:      Log{Level: "warn", Format: "console"},
	}
}

// Load reads a configuration file. Fields missing from the file keep their
// default values; unknown fields are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration YAML over the defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	switch scan.MismatchPolicy(c.Pushdown.OnMismatch) {
	case scan.MismatchFail, scan.MismatchResidual:
	default:
		return fmt.Errorf("pushdown.on_mismatch must be %q or %q, got %q",
			scan.MismatchFail, scan.MismatchResidual, c.Pushdown.OnMismatch)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if c.Scan.BatchSize < 1 {
		return fmt.Errorf("scan.batch_size must be positive, got %d", c.Scan.BatchSize)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be \"console\" or \"json\", got %q", c.Log.Format)
	}
	return nil
}

// ScanConfig converts the scan and pushdown settings for the executor.
func (c Config) ScanConfig() scan.Config {
	return scan.Config{
		Workers:    c.Scan.Workers,
		BatchSize:  c.Scan.BatchSize,
		OnMismatch: scan.MismatchPolicy(c.Pushdown.OnMismatch),
	}
}

// Build creates a logger writing to stderr.
func (l Log) Build() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if l.Format == "json" {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
