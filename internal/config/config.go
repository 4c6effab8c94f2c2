package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	OutputDir string          `mapstructure:"output_dir" yaml:"output_dir"`
	DBPath    string          `mapstructure:"db_path" yaml:"db_path"`
	LogFile   string          `mapstructure:"log_file" yaml:"log_file"`
	UserAgent string          `mapstructure:"user_agent" yaml:"user_agent"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Tools     ToolsConfig     `mapstructure:"tools" yaml:"tools"`
	Probe     ProbeConfig     `mapstructure:"probe" yaml:"probe"`
	Stages    StagesConfig    `mapstructure:"stages" yaml:"stages"`
}

// HTTPConfig controls the shared outbound HTTP behavior of all stages
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxConnections int `mapstructure:"max_connections" yaml:"max_connections"`
}

// Timeout returns the per-request timeout as a duration
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// RateLimitConfig contains the pacing settings shared across stages
type RateLimitConfig struct {
	DelayMillis int `mapstructure:"delay_ms" yaml:"delay_ms"`
}

// Delay returns the minimum inter-request delay as a duration
func (r RateLimitConfig) Delay() time.Duration {
	return time.Duration(r.DelayMillis) * time.Millisecond
}

// ToolConfig represents configuration for a single external tool
type ToolConfig struct {
	Path           string `mapstructure:"path" yaml:"path"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// Timeout returns the tool's whole-invocation timeout as a duration
func (t ToolConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// ToolsConfig contains configuration for all external tools
type ToolsConfig struct {
	Subfinder ToolConfig `mapstructure:"subfinder" yaml:"subfinder"`
	Gowitness ToolConfig `mapstructure:"gowitness" yaml:"gowitness"`
}

// ProbeConfig tunes the payload-based vulnerability probing stage
type ProbeConfig struct {
	// Params overrides the built-in candidate parameter list when non-empty.
	Params []string `mapstructure:"params" yaml:"params"`
}

// StagesConfig controls which pipeline stages to run
type StagesConfig struct {
	Enable []string `mapstructure:"enable" yaml:"enable"`
	Skip   []string `mapstructure:"skip" yaml:"skip"`
}

// Load reads and parses configuration from a YAML file.
// If path is empty, searches for tulpar.yaml in the current directory and
// ~/.config/tulpar/. A missing config file is not an error — defaults apply,
// so a bare `tulpar scan -d example.com` works without any setup.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tulpar")
		v.AddConfigPath(".")

		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "tulpar"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return DefaultConfig(), nil
		}
		if path != "" && os.IsNotExist(underlying(err)) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// underlying unwraps viper's pathError wrapping so os.IsNotExist works.
func underlying(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir cannot be empty"))
	}

	if c.UserAgent == "" {
		errs = append(errs, errors.New("user_agent cannot be empty"))
	}

	if c.HTTP.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("http.timeout_seconds must be positive"))
	}

	if c.HTTP.MaxConnections <= 0 {
		errs = append(errs, errors.New("http.max_connections must be positive"))
	}

	if c.RateLimit.DelayMillis < 0 {
		errs = append(errs, errors.New("rate_limit.delay_ms cannot be negative"))
	}

	if c.Tools.Subfinder.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("tools.subfinder.timeout_seconds must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
