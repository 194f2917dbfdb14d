package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/accordbot/accord/internal/logging"
)

// CooldownManager tracks active cooldown windows as a membership set of
// signature strings. State is process-lifetime only; a restart clears
// all cooldowns. Each armed window carries a token so that re-arming an
// active signature invalidates the earlier expiry timer instead of
// letting it remove the fresh window early.
type CooldownManager struct {
	mu     sync.Mutex
	active map[string]uint64
	tokens uint64
}

// NewCooldownManager creates an empty cooldown set
func NewCooldownManager() *CooldownManager {
	return &CooldownManager{
		active: make(map[string]uint64),
	}
}

// signature identifies one cooldown scope; userID is empty for the
// global-within-client scope.
func signature(botID string, ct ClientType, commandKey, userID string) string {
	sig := fmt.Sprintf("%s::%s::%s", botID, ct, commandKey)
	if userID != "" {
		sig += "::" + userID
	}
	return sig
}

// GlobalSignature is the global-within-client cooldown key for a resonance
func GlobalSignature(r *Resonance) string {
	return signature(r.Bot.ID(), r.Client.Type(), r.Instruction.Command.Key(), "")
}

// UserSignature is the per-user cooldown key for a resonance
func UserSignature(r *Resonance) string {
	return signature(r.Bot.ID(), r.Client.Type(), r.Instruction.Command.Key(), r.Raw.AuthorID)
}

// Arm adds a signature to the active set and schedules its removal.
// Re-arming replaces the window: the superseded timer finds its token
// gone and leaves the entry alone.
func (m *CooldownManager) Arm(sig string, d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.tokens++
	token := m.tokens
	m.active[sig] = token
	m.mu.Unlock()

	time.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.active[sig] != token {
			return
		}
		delete(m.active, sig)
		logging.Debug("cooldown", "Expired: %s", sig)
	})
}

// Active reports whether a signature is currently cooling down
func (m *CooldownManager) Active(sig string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[sig]
	return ok
}

// Check reports whether either the global or the per-user scope of the
// resonance's command is currently cooling down.
func (m *CooldownManager) Check(ctx context.Context, r *Resonance) bool {
	if r.Instruction == nil {
		return false
	}
	return m.Active(GlobalSignature(r)) || m.Active(UserSignature(r))
}

// SetCooldown arms the configured cooldown scopes after a command
// successfully executes. Durations resolve client override over static
// config; zero disables a scope.
func (m *CooldownManager) SetCooldown(ctx context.Context, r *Resonance) {
	if r.Instruction == nil {
		return
	}
	command := r.Instruction.Command
	cfg := command.ClientConfig(ctx, r.Bot, r.Client.Type())
	cooldown := command.ResolveCooldown(cfg)

	if cooldown.Global > 0 {
		m.Arm(GlobalSignature(r), time.Duration(cooldown.Global)*time.Second)
	}
	if cooldown.User > 0 {
		m.Arm(UserSignature(r), time.Duration(cooldown.User)*time.Second)
	}
}
