// Package config loads hbconv.yaml and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/hbconv/internal/logger"
)

// FileName is the config file created by "hbconv init".
const FileName = "hbconv.yaml"

// Environment variables that override the file.
const (
	EnvInputDir  = "HBCONV_INPUT_DIR"
	EnvOutputDir = "HBCONV_OUTPUT_DIR"
	EnvLogLevel  = "HBCONV_LOG_LEVEL"
	EnvLogFormat = "HBCONV_LOG_FORMAT"
)

// Config represents the hbconv.yaml configuration.
type Config struct {
	InputDir     string            `yaml:"input_dir"`
	OutputDir    string            `yaml:"output_dir"`
	OutputSuffix string            `yaml:"output_suffix,omitempty"`
	DateFormat   string            `yaml:"date_format"`
	QIFHeader    string            `yaml:"qif_header,omitempty"`
	Log          LogConfig         `yaml:"log"`
	RunLog       string            `yaml:"run_log,omitempty"`     // CSV summary file; empty disables
	ArchiveDir   string            `yaml:"archive_dir,omitempty"` // converted inputs are moved here; empty disables
	Formats      map[string]string `yaml:"formats,omitempty"`     // format key -> file name pattern
}

// LogConfig controls logger output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Default returns a Config with the stock In/Out layout.
func Default() *Config {
	return &Config{
		InputDir:   "In",
		OutputDir:  "Out",
		DateFormat: "01/02/2006",
		Log: LogConfig{
			Level:  "info",
			Format: logger.FormatConsole,
		},
	}
}

// Load reads a config file from disk. Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// LoadEnv loads envFile into the process environment, without replacing
// variables already set, then applies the HBCONV_* overrides to cfg. A
// missing envFile is not an error.
func LoadEnv(envFile string, cfg *Config) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return nil
}

// ApplyEnv overrides fields from lookup. Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvInputDir, &c.InputDir)
	set(EnvOutputDir, &c.OutputDir)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvLogFormat, &c.Log.Format)
}

// Validate checks the values that cannot be corrected at run time.
func (c *Config) Validate() error {
	var errs []error
	if c.InputDir == "" {
		errs = append(errs, errors.New("input_dir is empty"))
	}
	if c.DateFormat == "" {
		errs = append(errs, errors.New("date_format is empty"))
	} else if !roundTrips(c.DateFormat) {
		errs = append(errs, fmt.Errorf("date_format %q does not encode a full date", c.DateFormat))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", logger.FormatConsole, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	for format, pattern := range c.Formats {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("formats.%s: %w", format, err))
		}
	}
	return errors.Join(errs...)
}

// roundTrips reports whether layout keeps year, month and day.
func roundTrips(layout string) bool {
	ref := time.Date(2021, time.November, 23, 0, 0, 0, 0, time.UTC)
	got, err := time.Parse(layout, ref.Format(layout))
	return err == nil && got.Equal(ref)
}
