// Package config provides configuration loading for sheetscan.
// Supports YAML files with environment-variable overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sheetscan/sheetscan/internal/domain"
)

// Config holds all configuration for sheetscan.
type Config struct {
	Recognition   RecognitionConfig   `yaml:"recognition"`
	Dispatch      DispatchConfig      `yaml:"dispatch"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// RecognitionConfig holds recognition oracle settings.
type RecognitionConfig struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// DispatchConfig holds batch dispatch settings.
type DispatchConfig struct {
	Workers int `yaml:"workers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or console
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Recognition: RecognitionConfig{
			Model:       "gemini-2.0-flash",
			CallTimeout: 90 * time.Second,
		},
		Dispatch: DispatchConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Load reads configuration from an optional YAML file and applies
// environment-variable overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("failed to read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("failed to parse config file", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Recognition.APIKey = v
	}
	if v := os.Getenv("SHEETSCAN_MODEL"); v != "" {
		cfg.Recognition.Model = v
	}
	if v := os.Getenv("SHEETSCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dispatch.Workers = n
		}
	}
	if v := os.Getenv("SHEETSCAN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SHEETSCAN_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("SHEETSCAN_LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
