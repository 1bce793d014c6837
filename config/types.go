package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/launchsync/errors"
	"github.com/mitchellh/mapstructure"
)

const (
	// DefaultDebounce is the quiet window before a reconciliation pass runs.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultBatchWindow coalesces raw file events into one change batch.
	DefaultBatchWindow = 50 * time.Millisecond
	// DefaultFileName is the launch configuration file inside a temp folder.
	DefaultFileName = "launch.json"
)

// Config is the launchsync configuration loaded from launchsync.yml or launchsync.toml.
type Config struct {
	// Debounce is the reconciliation quiet window (e.g. "500ms").
	Debounce time.Duration `yaml:"debounce"`

	// BatchWindow groups raw file-system events into one change batch.
	BatchWindow time.Duration `yaml:"batch_window"`

	// FileName is the launch configuration file name.
	FileName string `yaml:"file_name"`

	// TempRoot is the directory that holds per-sketch temp folders.
	TempRoot string `yaml:"temp_root"`

	// ReadOnlyDirs lists directories whose sketches are read-only (bundled examples).
	ReadOnlyDirs []string `yaml:"read_only_dirs"`

	// Ignore holds patternmatcher patterns for file events to drop.
	Ignore []string `yaml:"ignore"`

	// Roots are the initial workspace roots for a session.
	Roots []string `yaml:"roots"`

	// Validate enables JSON schema validation of launch files on read.
	Validate bool `yaml:"validate"`

	// extensions holds every top-level section, known or not.
	extensions map[string]interface{}
}

var knownKeys = map[string]bool{
	"debounce":       true,
	"batch_window":   true,
	"file_name":      true,
	"temp_root":      true,
	"read_only_dirs": true,
	"ignore":         true,
	"roots":          true,
	"validate":       true,
}

// decode fills the config from a generic map produced by the YAML or TOML parsers.
func decode(raw map[string]interface{}) (*Config, error) {
	var cfg Config
	known := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		if knownKeys[key] {
			known[key] = value
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}
	if err := decoder.Decode(known); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	cfg.extensions = raw
	return &cfg, nil
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Debounce == 0 {
		c.Debounce = DefaultDebounce
	}
	if c.BatchWindow == 0 {
		c.BatchWindow = DefaultBatchWindow
	}
	if c.FileName == "" {
		c.FileName = DefaultFileName
	}
}

// Check reports configuration values the sync session cannot use.
func (c *Config) Check() error {
	if c.Debounce < 0 {
		return errors.ConfigInvalid("debounce must not be negative").WithDetail("debounce", c.Debounce.String())
	}
	if c.BatchWindow < 0 {
		return errors.ConfigInvalid("batch_window must not be negative").WithDetail("batch_window", c.BatchWindow.String())
	}
	if c.FileName != "" && (strings.ContainsAny(c.FileName, `/\`) || c.FileName != filepath.Base(c.FileName)) {
		return errors.ConfigInvalid("file_name must be a bare file name").WithDetail("file_name", c.FileName)
	}
	return nil
}

// UnmarshalExtension decodes a named top-level section of the configuration
// into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
