// Package config loads stockcount settings from config.yaml, a .env file
// and STOCKCOUNT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/stockcount/internal/logging"
	"github.com/mesh-intelligence/stockcount/internal/paths"
	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// EnvPrefix prefixes every environment override, with dots in keys
// replaced by underscores: log.level is STOCKCOUNT_LOG_LEVEL.
const EnvPrefix = "STOCKCOUNT"

// Config keys.
const (
	KeyBackend          = "backend"
	KeyDataDir          = "data_dir"
	KeyHTTPAddr         = "http_addr"
	KeyCORSOrigins      = "cors_origins"
	KeyLogLevel         = "log.level"
	KeyLogEncoding      = "log.encoding"
	KeyLogDevelopment   = "log.development"
	KeyValidatorURL     = "validator.url"
	KeyValidatorTimeout = "validator.timeout"
	KeyActivityCapacity = "activity.capacity"
)

// Defaults.
const (
	DefaultHTTPAddr         = ":8080"
	DefaultCORSOrigins      = "*"
	DefaultLogLevel         = "info"
	DefaultLogEncoding      = "console"
	DefaultValidatorTimeout = 10 * time.Second
	DefaultActivityCapacity = 500
)

// Config is the full process configuration.
type Config struct {
	Backend     string          `mapstructure:"backend" yaml:"backend"`
	DataDir     string          `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	HTTPAddr    string          `mapstructure:"http_addr" yaml:"http_addr"`
	CORSOrigins string          `mapstructure:"cors_origins" yaml:"cors_origins"`
	Log         logging.Config  `mapstructure:"log" yaml:"log"`
	Validator   ValidatorConfig `mapstructure:"validator" yaml:"validator"`
	Activity    ActivityConfig  `mapstructure:"activity" yaml:"activity"`
}

// ValidatorConfig points at the external entry validator. An empty URL
// selects the local rules.
type ValidatorConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ActivityConfig sizes the in-memory activity log.
type ActivityConfig struct {
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Backend:     types.BackendSQLite,
		HTTPAddr:    DefaultHTTPAddr,
		CORSOrigins: DefaultCORSOrigins,
		Log: logging.Config{
			Level:    DefaultLogLevel,
			Encoding: DefaultLogEncoding,
		},
		Validator: ValidatorConfig{Timeout: DefaultValidatorTimeout},
		Activity:  ActivityConfig{Capacity: DefaultActivityCapacity},
	}
}

// Store returns the storage part of c.
func (c Config) Store() types.Config {
	return types.Config{Backend: c.Backend, DataDir: c.DataDir}
}

// Load reads configDir/config.yaml, writing a default one on first run.
// A .env file in configDir, then one in the working directory, is loaded
// first; variables already set in the environment are never replaced.
func Load(configDir string) (Config, error) {
	for _, envFile := range []string{filepath.Join(configDir, paths.EnvFileName), paths.EnvFileName} {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := WriteDefault(paths.ConfigFile(configDir), ""); err != nil {
		return Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(paths.ConfigFile(configDir))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyBackend, d.Backend)
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyHTTPAddr, d.HTTPAddr)
	v.SetDefault(KeyCORSOrigins, d.CORSOrigins)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogEncoding, d.Log.Encoding)
	v.SetDefault(KeyLogDevelopment, false)
	v.SetDefault(KeyValidatorURL, "")
	v.SetDefault(KeyValidatorTimeout, d.Validator.Timeout)
	v.SetDefault(KeyActivityCapacity, d.Activity.Capacity)
}

// WriteDefault writes the default configuration to path unless the file
// already exists. dataDir, when set, is recorded as data_dir.
func WriteDefault(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := Default()
	cfg.DataDir = dataDir
	data, err := yaml.Marshal(fileForm(cfg))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# stockcount configuration. Every key can be overridden by a\n# STOCKCOUNT_* environment variable, e.g. STOCKCOUNT_HTTP_ADDR.\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}

// fileForm renders durations as strings, which yaml.v3 would otherwise
// write as nanosecond integers.
func fileForm(c Config) map[string]any {
	m := map[string]any{
		KeyBackend:     c.Backend,
		KeyHTTPAddr:    c.HTTPAddr,
		KeyCORSOrigins: c.CORSOrigins,
		"log": map[string]any{
			"level":    c.Log.Level,
			"encoding": c.Log.Encoding,
		},
		"validator": map[string]any{
			"url":     c.Validator.URL,
			"timeout": c.Validator.Timeout.String(),
		},
		"activity": map[string]any{
			"capacity": c.Activity.Capacity,
		},
	}
	if c.DataDir != "" {
		m[KeyDataDir] = c.DataDir
	}
	return m
}
