package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// TomlNav represents one navigation entry from TOML
type TomlNav struct {
	Label string `toml:"label"`
	Href  string `toml:"href"`
}

// TomlWebSub holds the hubs notified when the feed changes
type TomlWebSub struct {
	Hubs []string `toml:"hubs,omitempty"`
}

// TomlConfig represents the top-level site configuration
type TomlConfig struct {
	Title       string     `toml:"title"`
	Description string     `toml:"description"`
	BaseURL     string     `toml:"base_url"`
	Author      string     `toml:"author,omitempty"`
	ContentDir  string     `toml:"content_dir"`
	Database    string     `toml:"database,omitempty"`
	Nav         []TomlNav  `toml:"nav"`
	WebSub      TomlWebSub `toml:"websub,omitempty"`
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config TomlConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if config.ContentDir == "" {
		config.ContentDir = "content/posts"
	}

	// Trailing slashes on the base URL break link concatenation downstream
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")

	return &config, nil
}
