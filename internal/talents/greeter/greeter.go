// Package greeter is a listener example: it hears every resonance and
// greets back when someone says hello.
package greeter

import (
	"context"
	"strings"

	"github.com/accordbot/accord/internal/core"
	"github.com/accordbot/accord/internal/logging"
)

var greetings = map[string]bool{
	"hello": true,
	"hi":    true,
	"hey":   true,
}

// Greeter listens for greetings
type Greeter struct{}

// New creates the greeter listener
func New() *Greeter {
	return &Greeter{}
}

// Listen fires for every built resonance, command or not
func (g *Greeter) Listen(ctx context.Context, r *core.Resonance) {
	if !greetings[strings.ToLower(strings.TrimSpace(r.Content))] {
		return
	}
	greeting := r.Translate("Hello, {{name}}!", map[string]string{"name": r.Raw.AuthorName})
	if err := r.Reply(ctx, greeting); err != nil {
		logging.Debug("greeter", "Failed to greet: %v", err)
	}
}
