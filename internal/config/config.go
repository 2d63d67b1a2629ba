// Package config loads the YAML configuration file.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Macros    MacrosConfig    `yaml:"macros"`
	SocoCLI   SocoCLIConfig   `yaml:"sococli"`
	Execution ExecutionConfig `yaml:"execution"`
	Import    ImportConfig    `yaml:"import"`
}

type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	PathPrefix string `yaml:"path_prefix"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MacrosConfig selects where the macro document is stored.
type MacrosConfig struct {
	Path     string `yaml:"path"`
	Storage  string `yaml:"storage"`
	BoltPath string `yaml:"bolt_path"`
	Watch    *bool  `yaml:"watch"`
}

// SocoCLIConfig points at the soco-cli HTTP API server.
type SocoCLIConfig struct {
	URL                string `yaml:"url"`
	Timeout            string `yaml:"timeout"`
	RetryEmptyListings *bool  `yaml:"retry_empty_listings"`
}

type ExecutionConfig struct {
	HistorySize  int    `yaml:"history_size"`
	MaxArguments int    `yaml:"max_arguments"`
	RateLimit    int    `yaml:"rate_limit"`
	RateWindow   string `yaml:"rate_window"`
}

type ImportConfig struct {
	MaxSize int64 `yaml:"max_size"`
}

// GetTimeout returns the per-dispatch timeout.
func (c *SocoCLIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ShouldRetryEmptyListings reports whether a blank successful listing is retried once.
func (c *SocoCLIConfig) ShouldRetryEmptyListings() bool {
	return c.RetryEmptyListings == nil || *c.RetryEmptyListings
}

// ShouldWatch reports whether the macro file is watched for external edits.
func (c *MacrosConfig) ShouldWatch() bool {
	return c.Watch == nil || *c.Watch
}

// GetRateWindow returns the rate limiting window.
func (c *ExecutionConfig) GetRateWindow() time.Duration {
	d, err := time.ParseDuration(c.RateWindow)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			setDefaults(&cfg)
			return &cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			setDefaults(&cfg)
			return &cfg, err
		}
	}

	setDefaults(&cfg)

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/sndctl.db"
	}
	if cfg.Macros.Path == "" {
		cfg.Macros.Path = "./data/macros.txt"
	}
	if cfg.Macros.Storage == "" {
		cfg.Macros.Storage = "file"
	}
	if cfg.Macros.BoltPath == "" {
		cfg.Macros.BoltPath = "./data/macros.db"
	}
	if cfg.SocoCLI.URL == "" {
		cfg.SocoCLI.URL = "http://localhost:8001"
	}
	if cfg.SocoCLI.Timeout == "" {
		cfg.SocoCLI.Timeout = "30s"
	}
	if cfg.Execution.HistorySize == 0 {
		cfg.Execution.HistorySize = 100
	}
	if cfg.Execution.MaxArguments == 0 {
		cfg.Execution.MaxArguments = 32
	}
	if cfg.Execution.RateLimit == 0 {
		cfg.Execution.RateLimit = 60
	}
	if cfg.Execution.RateWindow == "" {
		cfg.Execution.RateWindow = "1m"
	}
	if cfg.Import.MaxSize == 0 {
		cfg.Import.MaxSize = 10 << 20
	}
}
