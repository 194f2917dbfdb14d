// Package config loads the application's YAML configuration file.
// Secrets (chat tokens) stay out of the file and come from the
// environment instead.
package config

import (
	"fmt"
	"os"

	"github.com/accordbot/accord/internal/core"
	"gopkg.in/yaml.v3"
)

// GestaltConfig selects the persistence backend
type GestaltConfig struct {
	// Driver is "file" (default) or "sqlite"
	Driver string `yaml:"driver"`
}

// DiscordConfig enables the Discord client; the token comes from the
// DISCORD_TOKEN environment variable.
type DiscordConfig struct {
	Enabled bool   `yaml:"enabled"`
	Owner   string `yaml:"owner"`
}

// TwitchConfig enables the Twitch client; the token comes from the
// TWITCH_TOKEN environment variable.
type TwitchConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Username string   `yaml:"username"`
	Owner    string   `yaml:"owner"`
	Channels []string `yaml:"channels"`
}

// Config is the full application configuration
type Config struct {
	Bot core.BotConfig `yaml:"bot"`

	StatePath  string `yaml:"state_path"`
	TalentsDir string `yaml:"talents_dir"`
	LocalesDir string `yaml:"locales_dir"`

	Gestalt GestaltConfig  `yaml:"gestalt"`
	Discord *DiscordConfig `yaml:"discord"`
	Twitch  *TwitchConfig  `yaml:"twitch"`
}

// Load reads and validates the configuration file. A missing or
// malformed file is fatal to startup: the process must not run with a
// half-configured bot.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Bot.ID == "" {
		return nil, fmt.Errorf("config %s missing bot.id", path)
	}
	if cfg.StatePath == "" {
		cfg.StatePath = "state"
	}
	if cfg.Gestalt.Driver == "" {
		cfg.Gestalt.Driver = "file"
	}
	if cfg.Gestalt.Driver != "file" && cfg.Gestalt.Driver != "sqlite" {
		return nil, fmt.Errorf("config %s: unknown gestalt driver %q", path, cfg.Gestalt.Driver)
	}
	return &cfg, nil
}
