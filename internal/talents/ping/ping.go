// Package ping is the canonical trivial command: it answers.
package ping

import (
	"context"
	"time"

	"github.com/accordbot/accord/internal/core"
)

// Key is the command key this executor serves
const Key = "ping"

// Ping answers with a localized pong
type Ping struct{}

// New creates the ping executor
func New() *Ping {
	return &Ping{}
}

// Execute replies on the resonance's origin
func (p *Ping) Execute(ctx context.Context, r *core.Resonance) error {
	r.Client.TypeFor(r.Origin, time.Second)
	return r.Reply(ctx, r.Translate("Pong!", nil))
}

// Help describes the command
func (p *Ping) Help(ctx context.Context, r *core.Resonance) error {
	return r.Reply(ctx, r.Translate("Ping the bot; it answers with Pong.", nil))
}
