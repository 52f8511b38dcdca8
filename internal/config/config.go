package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// DefaultHubPath is appended to the server URL when no explicit hub URL is set.
const DefaultHubPath = "/hubs/chat"

// Config represents ~/.msgr/config.toml merged with MSGR_* environment
// variables. Environment values win over the file.
type Config struct {
	ServerURL      string `toml:"server_url" env:"MSGR_SERVER_URL"`
	HubURL         string `toml:"hub_url" env:"MSGR_HUB_URL"`
	DefaultProfile string `toml:"default_profile" env:"MSGR_PROFILE"`
}

// Load reads config from the given path and applies environment overrides.
// A missing file is not an error; the environment alone may configure the client.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.ServerURL = strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	cfg.HubURL = strings.TrimSpace(cfg.HubURL)
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Validate checks that the config is usable for connecting.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("no server URL configured (set server_url in config.toml or MSGR_SERVER_URL)")
	}
	return nil
}

// ResolvedHubURL returns the push hub URL: the explicit hub_url when set,
// otherwise the server URL with the default hub path appended.
func (c *Config) ResolvedHubURL() string {
	if c.HubURL != "" {
		return c.HubURL
	}
	if c.ServerURL == "" {
		return ""
	}
	return c.ServerURL + DefaultHubPath
}
