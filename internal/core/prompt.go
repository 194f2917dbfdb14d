package core

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/accordbot/accord/internal/journal"
	"github.com/accordbot/accord/internal/logging"
)

// MaxPromptResets caps how many times a response handler may ask for
// another round of listening before the prompt fails outright.
const MaxPromptResets = 2

// PromptErrorType classifies how a prompt failed
type PromptErrorType string

const (
	PromptNoResponse       PromptErrorType = "no_response"
	PromptInvalidResponse  PromptErrorType = "invalid_response"
	PromptMaxResetExceeded PromptErrorType = "max_reset_exceeded"
	PromptMisc             PromptErrorType = "misc"
)

// PromptError is delivered to a prompt's error callback; never silently
// dropped, never allowed to crash the hosting process.
type PromptError struct {
	Type PromptErrorType
	Err  error
}

func (e *PromptError) Error() string {
	if e.Err != nil {
		return string(e.Type) + ": " + e.Err.Error()
	}
	return string(e.Type)
}

func (e *PromptError) Unwrap() error {
	return e.Err
}

// InvalidResponse is returned by a response handler to request another
// round of listening instead of failing the prompt.
func InvalidResponse(err error) *PromptError {
	return &PromptError{Type: PromptInvalidResponse, Err: err}
}

// PromptRequest describes one expectation of a follow-up message
type PromptRequest struct {
	// UserID is the author the follow-up must come from
	UserID string
	// Line is the communication line (channel/thread) being watched
	Line string
	// Resonance is the message that triggered the prompt
	Resonance *Resonance
	// Lifespan bounds how long the prompt listens before timing out
	Lifespan time.Duration

	// OnResponse runs on a matching message. Returning nil resolves the
	// prompt; returning InvalidResponse re-arms listening (bounded by
	// MaxPromptResets); any other error fails the prompt as misc.
	OnResponse func(ctx context.Context, r *Resonance) error
	// OnError receives the prompt's single failure, if any
	OnError func(ctx context.Context, perr *PromptError)
	// Condition overrides the client's default matching predicate
	Condition func(r *Resonance) bool
}

// Prompt is a pending expectation of a reply from a specific user on a
// specific communication line. Exactly one terminal outcome occurs: the
// response callback fires once, or the error callback fires once.
type Prompt struct {
	ID        string
	UserID    string
	Line      string
	Resonance *Resonance
	Lifespan  time.Duration

	bot        *Bot
	clientType ClientType
	onResponse func(ctx context.Context, r *Resonance) error
	onError    func(ctx context.Context, perr *PromptError)
	condition  func(r *Resonance) bool

	// matched is the single-resolution channel; Listen offers at most
	// one resonance into it, Await is the single consumer.
	matched  chan *Resonance
	done     chan struct{}
	disabled atomic.Bool
	resets   int
}

// Listen offers a resonance to the prompt. Only messages on the prompt's
// client type that satisfy the matching condition are considered.
func (p *Prompt) Listen(ctx context.Context, r *Resonance) {
	if p.disabled.Load() {
		return
	}
	if r.Client.Type() != p.clientType {
		return
	}
	match := p.condition
	if match == nil {
		match = func(r *Resonance) bool { return r.Client.PromptCondition(p, r) }
	}
	if !match(r) {
		return
	}
	select {
	case p.matched <- r:
	default:
		// A resolution is already in flight
	}
}

// Await blocks until the prompt resolves, times out, or the context is
// cancelled. The lifespan timer re-arms on each reset round. Resolution
// and expiry racing each other still produce exactly one terminal
// outcome: this select is the single consumer of both signals.
func (p *Prompt) Await(ctx context.Context) error {
	if p.disabled.Load() {
		return &PromptError{Type: PromptMisc, Err: errors.New("prompt already disabled")}
	}

	timer := time.NewTimer(p.Lifespan)
	defer timer.Stop()

	for {
		select {
		case r := <-p.matched:
			err := p.onResponse(ctx, r)
			if err == nil {
				p.Disable()
				p.journal("resolved")
				return nil
			}
			var perr *PromptError
			if errors.As(err, &perr) && perr.Type == PromptInvalidResponse {
				if p.resets >= MaxPromptResets {
					ferr := &PromptError{Type: PromptMaxResetExceeded, Err: perr.Err}
					p.fail(ctx, ferr)
					return ferr
				}
				p.resets++
				logging.Debug("prompt", "Reset %d/%d for prompt %s", p.resets, MaxPromptResets, p.ID)
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(p.Lifespan)
				continue
			}
			ferr := &PromptError{Type: PromptMisc, Err: err}
			p.fail(ctx, ferr)
			return ferr

		case <-timer.C:
			ferr := &PromptError{Type: PromptNoResponse}
			p.fail(ctx, ferr)
			return ferr

		case <-ctx.Done():
			p.Disable()
			return ctx.Err()

		case <-p.done:
			return &PromptError{Type: PromptMisc, Err: errors.New("prompt disabled")}
		}
	}
}

// fail records the prompt's single failure and tears it down
func (p *Prompt) fail(ctx context.Context, perr *PromptError) {
	p.Disable()
	p.journal(string(perr.Type))
	if p.onError != nil {
		p.onError(ctx, perr)
	}
}

func (p *Prompt) journal(outcome string) {
	if p.bot != nil {
		p.bot.record(journal.EntryPrompt, p.Resonance, outcome)
	}
}

// Disable tears the prompt down: stops listening and removes it from the
// bot's active list exactly once. Safe to call from any path.
func (p *Prompt) Disable() {
	if !p.disabled.CompareAndSwap(false, true) {
		return
	}
	close(p.done)
	if p.bot != nil {
		p.bot.removePrompt(p)
	}
}
