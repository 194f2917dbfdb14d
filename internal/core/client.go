package core

import (
	"context"
	"time"
)

// Client is the capability contract a chat platform adapter implements.
// The core only ever depends on this interface; platform specifics
// (authorization warrants, eminence lookup, cooldown notifications,
// prompt matching) live behind the per-client hooks.
type Client interface {
	Type() ClientType

	// Authenticate connects to the platform and starts delivering inbound
	// messages to the owning bot. Disconnect tears the connection down.
	Authenticate(ctx context.Context) error
	Disconnect() error

	// Send delivers content to a destination (channel, DM line) and
	// returns the platform handle of the sent message.
	Send(ctx context.Context, destination, content string) (string, error)

	// TypeFor emits a best-effort "is typing" indicator; no-op permitted.
	TypeFor(destination string, d time.Duration)

	// OwnerID is the privileged identifier that bypasses all
	// authorization checks. Empty disables the bypass.
	OwnerID() string

	// CommandPrefix returns a context-specific prefix override for the
	// resonance, or "" when the bot default applies.
	CommandPrefix(ctx context.Context, r *Resonance) string

	// AuthorEminence resolves the author's role tier, falling back to
	// EminenceNone when nothing is configured.
	AuthorEminence(ctx context.Context, r *Resonance) Eminence

	// Warrant is the client-specific tail of command authorization,
	// e.g. guild/channel blacklists. cfg may be nil.
	Warrant(ctx context.Context, r *Resonance, cfg *ClientCommandConfig) bool

	// NotifyCooldown tells the author their command is cooling down, in
	// whatever way the platform supports.
	NotifyCooldown(ctx context.Context, r *Resonance)

	// PromptCondition reports whether a resonance answers a prompt,
	// typically same communication line and same target user.
	PromptCondition(p *Prompt, r *Resonance) bool
}
