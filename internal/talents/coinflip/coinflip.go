// Package coinflip flips a coin and prompts the author to call it,
// exercising the interactive follow-up machinery.
package coinflip

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/accordbot/accord/internal/core"
	"github.com/accordbot/accord/internal/logging"
)

// Key is the command key this executor serves
const Key = "coinflip"

// Coinflip runs the guessing game
type Coinflip struct {
	// lifespan bounds how long the author has to call the coin
	lifespan time.Duration
	flip     func() string
}

// New creates the coinflip executor
func New() *Coinflip {
	return &Coinflip{
		lifespan: 30 * time.Second,
		flip: func() string {
			if rand.Intn(2) == 0 {
				return "heads"
			}
			return "tails"
		},
	}
}

// Execute flips the coin and waits for the author's call on the same line
func (c *Coinflip) Execute(ctx context.Context, r *core.Resonance) error {
	result := c.flip()

	if err := r.Reply(ctx, r.Translate("The coin is in the air. Heads or tails?", nil)); err != nil {
		return err
	}

	prompt, err := r.Bot.NewPrompt(core.PromptRequest{
		Resonance: r,
		Lifespan:  c.lifespan,
		OnResponse: func(ctx context.Context, answer *core.Resonance) error {
			guess := strings.ToLower(strings.TrimSpace(answer.Content))
			if guess != "heads" && guess != "tails" {
				if err := answer.Reply(ctx, answer.Translate("That's not a side of a coin. Heads or tails?", nil)); err != nil {
					return err
				}
				return core.InvalidResponse(fmt.Errorf("unrecognized call %q", guess))
			}
			if guess == result {
				return answer.Reply(ctx, answer.Translate("It's {{result}}. You called it!", map[string]string{"result": result}))
			}
			return answer.Reply(ctx, answer.Translate("It's {{result}}. Better luck next time.", map[string]string{"result": result}))
		},
		OnError: func(ctx context.Context, perr *core.PromptError) {
			var phrase string
			switch perr.Type {
			case core.PromptNoResponse:
				phrase = "Too slow! The coin says {{result}}."
			case core.PromptMaxResetExceeded:
				phrase = "That's enough guessing. The coin says {{result}}."
			default:
				logging.Warn("coinflip", "Prompt failed: %v", perr)
				return
			}
			if err := r.Reply(ctx, r.Translate(phrase, map[string]string{"result": result})); err != nil {
				logging.Warn("coinflip", "Failed to report outcome: %v", err)
			}
		},
	})
	if err != nil {
		return err
	}

	// The game outlives this execute call; the prompt owns the outcome
	go func() {
		if err := prompt.Await(context.Background()); err != nil {
			logging.Debug("coinflip", "Game over: %v", err)
		}
	}()
	return nil
}

// Help describes the command
func (c *Coinflip) Help(ctx context.Context, r *core.Resonance) error {
	return r.Reply(ctx, r.Translate("Flip a coin, then call heads or tails within 30 seconds.", nil))
}
