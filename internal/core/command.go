package core

import (
	"context"
	"fmt"

	"github.com/accordbot/accord/internal/gestalt"
	"github.com/accordbot/accord/internal/logging"
)

// Executor is the contract an individual command implements
type Executor interface {
	Execute(ctx context.Context, r *Resonance) error
	Help(ctx context.Context, r *Resonance) error
}

// Listener fires for every built resonance, command or not
type Listener interface {
	Listen(ctx context.Context, r *Resonance)
}

// InputSpec declares whether a command requires positional input
type InputSpec struct {
	Required bool `yaml:"required"`
}

// ArgSpec declares one named option or flag a command accepts.
// Eminence, when set, gates that specific argument.
type ArgSpec struct {
	Key         string   `yaml:"key"`
	Aliases     []string `yaml:"aliases"`
	Description string   `yaml:"description"`
	Eminence    string   `yaml:"eminence"`
}

// Matches reports whether a supplied argument name addresses this spec
func (a ArgSpec) Matches(name string) bool {
	if a.Key == name {
		return true
	}
	for _, alias := range a.Aliases {
		if alias == name {
			return true
		}
	}
	return false
}

// CooldownConfig holds cooldown durations in seconds; 0 disables a scope
type CooldownConfig struct {
	Global int `yaml:"global" json:"global"`
	User   int `yaml:"user" json:"user"`
}

// CommandConfig is a command's static file-defined configuration
type CommandConfig struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description"`
	Usage       string `yaml:"usage"`

	Aliases []string   `yaml:"aliases"`
	Clients ClientList `yaml:"clients"`

	// Active defaults to true when unset
	Active *bool `yaml:"active"`
	// DirectMessages must be explicitly enabled for the command to run
	// in private channels
	DirectMessages bool           `yaml:"direct_messages"`
	Eminence       string         `yaml:"eminence"`
	Cooldown       CooldownConfig `yaml:"cooldown"`

	Input   InputSpec `yaml:"input"`
	Options []ArgSpec `yaml:"options"`
	Flags   []ArgSpec `yaml:"flags"`
}

// Blacklist scopes a client-specific command configuration
type Blacklist struct {
	Users    []string `json:"users"`
	Guilds   []string `json:"guilds"`
	Channels []string `json:"channels"`
}

func contains(list []string, s string) bool {
	for _, entry := range list {
		if entry == s {
			return true
		}
	}
	return false
}

// ClientCommandConfig is the per-bot, per-client override record stored
// in the gestalt under /bots/{botID}/commands/{key}/clients/{clientType}.
// Pointer fields distinguish "unset" from an explicit value so the
// two-tier resolution can fall back to the static config.
type ClientCommandConfig struct {
	Active         *bool           `json:"active"`
	DirectMessages *bool           `json:"direct_messages"`
	Eminence       string          `json:"eminence"`
	Cooldown       *CooldownConfig `json:"cooldown"`
	Blacklist      Blacklist       `json:"blacklist"`
}

// Command is a singleton definition shared across every resonance that
// references it. Config is never mutated at runtime; per-client overrides
// come from the store.
type Command struct {
	Config   CommandConfig
	Talent   *Talent
	Executor Executor
}

// Key returns the canonical command key
func (c *Command) Key() string {
	return c.Config.Key
}

// AllowedIn checks the talent-level and command-level client
// restrictions; both must allow the client type.
func (c *Command) AllowedIn(ct ClientType) bool {
	if c.Talent != nil && !c.Talent.Clients.Allows(ct) {
		return false
	}
	return c.Config.Clients.Allows(ct)
}

// ClientConfig fetches this command's override record for one client
// type. A missing record or a failed read both yield nil: runtime config
// gaps fall back to permissive defaults rather than failing closed.
func (c *Command) ClientConfig(ctx context.Context, b *Bot, ct ClientType) *ClientCommandConfig {
	path := fmt.Sprintf("/bots/%s/commands/%s/clients/%s", b.ID(), c.Key(), ct)
	record, err := b.Store.Get(ctx, path)
	if err != nil {
		logging.Debug("command", "Client config lookup %s failed: %v", path, err)
		return nil
	}
	if record == nil {
		return nil
	}
	var cfg ClientCommandConfig
	if err := gestalt.Decode(record, &cfg); err != nil {
		logging.Warn("command", "Malformed client config at %s: %v", path, err)
		return nil
	}
	return &cfg
}

// ResolveActive applies override-over-base precedence; unset means active
func (c *Command) ResolveActive(cfg *ClientCommandConfig) bool {
	if cfg != nil && cfg.Active != nil {
		return *cfg.Active
	}
	if c.Config.Active != nil {
		return *c.Config.Active
	}
	return true
}

// ResolveDirectMessages applies override-over-base precedence
func (c *Command) ResolveDirectMessages(cfg *ClientCommandConfig) bool {
	if cfg != nil && cfg.DirectMessages != nil {
		return *cfg.DirectMessages
	}
	return c.Config.DirectMessages
}

// ResolveEminence applies override-over-base precedence, defaulting to
// EminenceNone. An unparseable configured tier is treated as unset.
func (c *Command) ResolveEminence(cfg *ClientCommandConfig) Eminence {
	if cfg != nil && cfg.Eminence != "" {
		e, err := ParseEminence(cfg.Eminence)
		if err == nil {
			return e
		}
		logging.Warn("command", "Bad eminence in client config for %s: %v", c.Key(), err)
	}
	e, err := ParseEminence(c.Config.Eminence)
	if err != nil {
		logging.Warn("command", "Bad eminence in config for %s: %v", c.Key(), err)
		return EminenceNone
	}
	return e
}

// ResolveCooldown applies override-over-base precedence
func (c *Command) ResolveCooldown(cfg *ClientCommandConfig) CooldownConfig {
	if cfg != nil && cfg.Cooldown != nil {
		return *cfg.Cooldown
	}
	return c.Config.Cooldown
}

// Talent bundles related commands and listeners and may carry its own
// client restriction, combined with each command's via AND semantics.
type Talent struct {
	Name      string
	Clients   ClientList
	Commands  []*Command
	Listeners []Listener
}
