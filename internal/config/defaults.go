package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "output",
		DBPath:    "tulpar.db",
		LogFile:   "tulpar.log",
		UserAgent: "Tulpar/1.0 (BugBountyScanner)",
		HTTP: HTTPConfig{
			TimeoutSeconds: 15,
			MaxConnections: 50,
		},
		RateLimit: RateLimitConfig{
			DelayMillis: 500,
		},
		Tools: ToolsConfig{
			Subfinder: ToolConfig{
				Path:           "subfinder",
				TimeoutSeconds: 300,
			},
			Gowitness: ToolConfig{
				Path: "gowitness",
			},
		},
		Probe: ProbeConfig{},
		Stages: StagesConfig{
			Enable: []string{},
			Skip:   []string{},
		},
	}
}

// WriteDefault writes a default configuration to the specified path
func WriteDefault(path string) error {
	cfg := DefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
