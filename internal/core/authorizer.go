package core

import (
	"context"
	"fmt"

	"github.com/accordbot/accord/internal/logging"
)

// DenialReason names the authorization check that denied a command
type DenialReason string

const (
	DenialNone       DenialReason = ""
	DenialActivation DenialReason = "activation"
	DenialCooldown   DenialReason = "cooldown"
	DenialPrivacy    DenialReason = "privacy"
	DenialBlacklist  DenialReason = "blacklist"
	DenialEminence   DenialReason = "eminence"
	DenialArguments  DenialReason = "arguments"
	DenialWarrant    DenialReason = "warrant"
)

// Authorizer runs the ordered authorization gate for one resonance
// carrying an instruction. Checks run strictly in the documented order
// and short-circuit on the first failure; later checks assume earlier
// ones passed.
type Authorizer struct {
	bot    *Bot
	client Client
}

// NewAuthorizer creates an authorizer bound to one bot and client
func NewAuthorizer(bot *Bot, client Client) *Authorizer {
	return &Authorizer{bot: bot, client: client}
}

// Authorize yields allow/deny plus the reason for a denial. Denials are
// boolean outcomes, not errors; most are silent, cooldown notifies the
// author, and argument errors carry a user-facing explanation.
func (a *Authorizer) Authorize(ctx context.Context, r *Resonance) (bool, DenialReason) {
	command := r.Instruction.Command

	// The designated owner bypasses every check
	if owner := a.client.OwnerID(); owner != "" && r.Raw.AuthorID == owner {
		return true, DenialNone
	}

	cfg := command.ClientConfig(ctx, a.bot, a.client.Type())

	if !command.ResolveActive(cfg) {
		logging.Debug("authorizer", "Denied %s: not active", command.Key())
		return false, DenialActivation
	}

	if a.bot.Cooldowns.Check(ctx, r) {
		logging.Debug("authorizer", "Denied %s: cooling down", command.Key())
		a.client.NotifyCooldown(ctx, r)
		return false, DenialCooldown
	}

	// Without a client-specific record there is nothing further to
	// check against
	if cfg == nil {
		return true, DenialNone
	}

	if r.Privacy == PrivacyPrivate && !command.ResolveDirectMessages(cfg) {
		logging.Debug("authorizer", "Denied %s: not enabled in DMs", command.Key())
		return false, DenialPrivacy
	}

	if contains(cfg.Blacklist.Users, r.Raw.AuthorID) {
		logging.Debug("authorizer", "Denied %s: author %s blacklisted", command.Key(), r.Raw.AuthorID)
		return false, DenialBlacklist
	}

	eminence := a.client.AuthorEminence(ctx, r)
	if eminence < command.ResolveEminence(cfg) {
		logging.Debug("authorizer", "Denied %s: eminence %s below required", command.Key(), eminence)
		return false, DenialEminence
	}

	if err := a.validateArguments(ctx, r, eminence); err != nil {
		logging.Info("authorizer", "Denied %s: %v", command.Key(), err)
		if msg := r.Translate("Invalid arguments: {{reason}}", map[string]string{"reason": err.Error()}); msg != "" {
			if replyErr := r.Reply(ctx, msg); replyErr != nil {
				logging.Warn("authorizer", "Failed to explain argument error: %v", replyErr)
			}
		}
		return false, DenialArguments
	}

	if !a.client.Warrant(ctx, r, cfg) {
		logging.Debug("authorizer", "Denied %s: warrant failed", command.Key())
		return false, DenialWarrant
	}

	return true, DenialNone
}

// validateArguments checks required input, rejects unknown argument
// names, and enforces per-argument eminence. The "help" flag is a
// built-in: it needs no declaration and waives the input requirement.
func (a *Authorizer) validateArguments(ctx context.Context, r *Resonance, eminence Eminence) error {
	command := r.Instruction.Command
	args := r.Instruction.Arguments

	// Flag and option tokens are not input; only positional text counts
	if command.Config.Input.Required && len(args.Positional) == 0 && !args.Flags["help"] {
		return fmt.Errorf("command %s requires input", command.Key())
	}

	for _, name := range args.Names() {
		if name == "help" {
			continue
		}
		spec, ok := findArg(command.Config, name)
		if !ok {
			return fmt.Errorf("unknown argument: %s", name)
		}
		required, err := ParseEminence(spec.Eminence)
		if err != nil {
			logging.Warn("authorizer", "Bad eminence on argument %s of %s: %v", name, command.Key(), err)
			continue
		}
		if eminence < required {
			return fmt.Errorf("argument %s requires eminence %s", name, required)
		}
	}
	return nil
}

// findArg resolves a supplied argument name against the declared
// parameter schema, options and flags alike.
func findArg(cfg CommandConfig, name string) (ArgSpec, bool) {
	for _, spec := range cfg.Options {
		if spec.Matches(name) {
			return spec, true
		}
	}
	for _, spec := range cfg.Flags {
		if spec.Matches(name) {
			return spec, true
		}
	}
	return ArgSpec{}, false
}
