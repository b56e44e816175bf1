package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/BenderFendor/feedingest/internal/feed"
	"github.com/BenderFendor/feedingest/internal/ingest"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources []feed.Source `yaml:"sources"`
	Fetch   Fetch         `yaml:"fetch"`
	Server  Server        `yaml:"server"`
}

type Fetch struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for feedingest.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "feedingest")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/feedingest/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'feedingest init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Fetch:  Fetch{MaxConcurrent: ingest.DefaultMaxConcurrent},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
