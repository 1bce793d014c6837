package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are searched in order in every directory.
var configNames = []string{
	"launchsync.yml",
	"launchsync.yaml",
	"launchsync.toml",
	".launchsync.yml",
	".launchsync.yaml",
}

// Load reads and parses a single configuration file
func Load(path string) (*Config, error) {
	raw, err := loadRaw(path)
	if err != nil {
		return nil, err
	}
	return finish(raw)
}

// LoadDefault loads the configuration for the current working directory.
// A missing configuration is not an error; defaults are returned instead.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the given directory
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.New())
}

// LoadFromWithLogger loads configuration with hierarchical merging and logging:
// 1. Global config (~/.config/launchsync/launchsync.yml) - base layer
// 2. Project config (nearest launchsync.yml upward) - overrides global
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	merged := make(map[string]interface{})

	if globalPath := findInDir(paths.ConfigDir()); globalPath != "" {
		logger.WithField("path", globalPath).Debug("Loading global configuration")
		globalRaw, err := loadRaw(globalPath)
		if err != nil {
			logger.WithError(err).Warn("Failed to load global configuration, continuing without it")
		} else {
			merged = mergeRaw(merged, globalRaw)
		}
	}

	projectPath, err := FindConfigFile(startDir)
	if err == nil {
		logger.WithField("path", projectPath).Debug("Loading project configuration")
		projectRaw, err := loadRaw(projectPath)
		if err != nil {
			return nil, err
		}
		merged = mergeRaw(merged, projectRaw)
	} else if !errors.Is(err, errors.ErrCodeConfigNotFound) {
		return nil, err
	}

	return finish(merged)
}

// LoadFromBytes parses YAML configuration from a byte array
func LoadFromBytes(data []byte) (*Config, error) {
	raw, err := parseRaw(data, ".yml")
	if err != nil {
		return nil, err
	}
	return finish(raw)
}

func finish(raw map[string]interface{}) (*Config, error) {
	cfg, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRaw(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	raw, err := parseRaw(data, filepath.Ext(path))
	if err != nil {
		if syncErr, ok := err.(*errors.SyncError); ok {
			return nil, syncErr.WithDetail("path", path)
		}
		return nil, err
	}
	return raw, nil
}

// parseRaw decodes YAML or TOML into a generic map after env expansion.
func parseRaw(data []byte, ext string) (map[string]interface{}, error) {
	expanded := expandEnvVars(string(data))

	raw := make(map[string]interface{})
	switch ext {
	case ".toml":
		if err := toml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
		}
	}
	if raw == nil {
		raw = make(map[string]interface{})
	}
	return raw, nil
}

// mergeRaw overlays override onto base. Nested sections are merged one level deep.
func mergeRaw(base, override map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(base)+len(override))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range override {
		if baseMap, ok := result[key].(map[string]interface{}); ok {
			if overrideMap, ok := value.(map[string]interface{}); ok {
				mergedMap := make(map[string]interface{}, len(baseMap)+len(overrideMap))
				for k, v := range baseMap {
					mergedMap[k] = v
				}
				for k, v := range overrideMap {
					mergedMap[k] = v
				}
				result[key] = mergedMap
				continue
			}
		}
		result[key] = value
	}
	return result
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LAUNCHSYNC_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid LAUNCHSYNC_DEBOUNCE").
				WithDetail("value", v)
		}
		cfg.Debounce = d
	}
	if v := os.Getenv("LAUNCHSYNC_TEMP_ROOT"); v != "" {
		cfg.TempRoot = v
	}
	return nil
}

// FindConfigFile searches for a launchsync configuration file from startDir
// up to the filesystem root.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		if path := findInDir(dir); path != "" {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

func findInDir(dir string) string {
	if dir == "" {
		return ""
	}
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
