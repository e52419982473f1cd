package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/c360/nertag/errors"
)

// DefaultEnvPrefix is the prefix for environment variable overrides
// (NERTAG_CLIENT_HOST, NERTAG_NATS_URL, NERTAG_LOG_LEVEL, ...).
const DefaultEnvPrefix = "NERTAG"

// Loader loads configuration in layers: built-in defaults, then JSON
// config files, then environment overrides. Each file is checked
// against the embedded schema before decoding.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader with validation enabled.
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: true,
		envPrefix:  DefaultEnvPrefix,
	}
}

// AddLayer adds a configuration file layer. Later layers override
// earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation.
// Validation is on by default; disabling it is for tests that build
// intentionally partial configs.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file. A missing file is
// not an error: the daemon runs on defaults plus environment
// overrides. An empty path skips the file layer entirely.
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = nil

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.WrapInvalid(
					fmt.Errorf("cannot stat config file %s: %w", path, err),
					"Loader", "LoadFile", "check config file")
			}
			// Missing file: fall through to defaults.
		} else {
			l.layers = []string{path}
		}
	}

	return l.Load()
}

// Load loads and merges all configuration layers, applies environment
// overrides, and validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range l.layers {
		rawConfig, err := l.loadRawJSON(path)
		if err != nil {
			return nil, err
		}
		cfg = l.mergeFromMap(cfg, rawConfig)
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadRawJSON reads a config file and returns its content as a map,
// after depth and schema validation.
func (l *Loader) loadRawJSON(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("failed to load %s: %w", path, err),
			"Loader", "Load", "read config file")
	}

	// Validate JSON depth to prevent DoS
	if err := validateJSONDepth(data); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("invalid JSON structure in %s: %w", path, err),
			"Loader", "Load", "check config structure")
	}

	if err := validateRawConfig(data); err != nil {
		return nil, err
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("failed to parse %s: %w", path, err),
			"Loader", "Load", "decode config file")
	}

	return rawConfig, nil
}

// mergeFromMap merges configuration from a raw map over the base
// config, only overriding fields present in the map.
func (l *Loader) mergeFromMap(base *Config, override map[string]any) *Config {
	if override == nil {
		return base
	}

	// Marshal the base config to JSON then to map
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return base
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return base
	}

	// Deep merge the maps
	mergedMap := l.deepMergeMaps(baseMap, override)

	// Convert back to Config
	mergedJSON, err := json.Marshal(mergedMap)
	if err != nil {
		return base
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return base
	}

	return &merged
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func (l *Loader) deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any)

	// Copy base values
	for k, v := range base {
		result[k] = v
	}

	// Override with values from override map
	for k, v := range override {
		if v == nil {
			continue
		}

		// If both base and override have maps at this key, merge them
		if baseMap, baseOk := base[k].(map[string]any); baseOk {
			if overrideMap, overrideOk := v.(map[string]any); overrideOk {
				result[k] = l.deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}

		// Otherwise, override takes precedence
		result[k] = v
	}

	return result
}

// applyEnvOverrides applies environment variable overrides. Every
// value is validated before use; an unparsable override is an error
// naming the variable rather than a silently kept default.
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	overrides := []struct {
		name  string
		apply func(string) error
	}{
		{"_CLIENT_TRANSPORT", setString(&cfg.Client.Transport)},
		{"_CLIENT_HOST", setString(&cfg.Client.Host)},
		{"_CLIENT_PORT", setInt(&cfg.Client.Port)},
		{"_CLIENT_PATH", setString(&cfg.Client.Path)},
		{"_CLIENT_CLASSIFIER", setString(&cfg.Client.Classifier)},
		{"_CLIENT_PRESERVE_SPACING", setBool(&cfg.Client.PreserveSpacing)},
		{"_CLIENT_FORMAT", setString(&cfg.Client.OutputFormat)},
		{"_CLIENT_TIMEOUT", setDuration(&cfg.Client.Timeout)},
		{"_NATS_URL", setString(&cfg.NATS.URL)},
		{"_NATS_NAME", setString(&cfg.NATS.Name)},
		{"_NATS_SUBMIT_SUBJECT", setString(&cfg.NATS.SubmitSubject)},
		{"_NATS_ANNOTATED_SUBJECT", setString(&cfg.NATS.AnnotatedSubject)},
		{"_NATS_QUEUE_GROUP", setString(&cfg.NATS.QueueGroup)},
		{"_NATS_TOKEN", setString(&cfg.NATS.Token)},
		{"_NATS_CREDENTIALS", setString(&cfg.NATS.CredentialsFile)},
		{"_SERVICE_WORKERS", setInt(&cfg.Service.Workers)},
		{"_SERVICE_QUEUE_SIZE", setInt(&cfg.Service.QueueSize)},
		{"_SERVICE_RATE_LIMIT", setFloat(&cfg.Service.RateLimit)},
		{"_METRICS_ENABLED", setBool(&cfg.Metrics.Enabled)},
		{"_METRICS_PORT", setInt(&cfg.Metrics.Port)},
		{"_LOG_LEVEL", setString(&cfg.Log.Level)},
		{"_LOG_FORMAT", setString(&cfg.Log.Format)},
	}

	for _, o := range overrides {
		key := l.envPrefix + o.name
		val := os.Getenv(key)
		if val == "" {
			continue
		}

		if err := validateEnvVar(key, val); err != nil {
			return errors.WrapInvalid(err, "Loader", "Load", "apply environment overrides")
		}

		if err := o.apply(val); err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("%s: %w", key, err),
				"Loader", "Load", "apply environment overrides")
		}
	}

	return nil
}

func setString(target *string) func(string) error {
	return func(val string) error {
		*target = val
		return nil
	}
}

func setInt(target *int) func(string) error {
	return func(val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*target = n
		return nil
	}
}

func setFloat(target *float64) func(string) error {
	return func(val string) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		*target = f
		return nil
	}
}

func setBool(target *bool) func(string) error {
	return func(val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*target = b
		return nil
	}
}

func setDuration(target *time.Duration) func(string) error {
	return func(val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*target = d
		return nil
	}
}
