package core

import (
	"context"
	"fmt"

	"github.com/accordbot/accord/internal/gestalt"
	"github.com/accordbot/accord/internal/logging"
	"github.com/google/uuid"
)

// localeSentinel marks a stored preference as "not configured"
const localeSentinel = "default"

// Resonance is the normalized snapshot of one inbound message plus its
// derived context. Build resolves origin, locale and privacy exactly once
// before any prompt, listener or command sees it; after that the value is
// treated as immutable.
type Resonance struct {
	ID      string
	Content string
	Raw     RawMessage
	Bot     *Bot
	Client  Client

	Locale  string
	Privacy Privacy
	// Origin is an opaque destination handle suitable for echoing
	// replies back to the same context.
	Origin string

	// Instruction is set only when the interpreter found a command match
	Instruction *Instruction
}

// NewResonance wraps a raw platform message for processing
func NewResonance(bot *Bot, client Client, raw RawMessage) *Resonance {
	return &Resonance{
		ID:      uuid.NewString(),
		Content: raw.Content,
		Raw:     raw,
		Bot:     bot,
		Client:  client,
	}
}

// Build resolves the derived context: origin, locale, then privacy
func (r *Resonance) Build(ctx context.Context) error {
	if r.Bot == nil || r.Client == nil {
		return fmt.Errorf("resonance missing bot or client")
	}

	r.Origin = r.Raw.ChannelID

	r.Locale = r.resolveLocale(ctx)

	if r.Raw.Private {
		r.Privacy = PrivacyPrivate
	} else {
		r.Privacy = PrivacyPublic
	}
	return nil
}

// resolveLocale walks the preference chain: user, then channel, then
// guild (where the platform has one), then the bot default. A failed
// lookup or the literal "default" sentinel falls through to the next tier.
func (r *Resonance) resolveLocale(ctx context.Context) string {
	base := fmt.Sprintf("/i18n/%s/clients/%s", r.Bot.ID(), r.Client.Type())

	tiers := []string{
		fmt.Sprintf("%s/users/%s", base, r.Raw.AuthorID),
		fmt.Sprintf("%s/channels/%s", base, r.Raw.ChannelID),
	}
	if r.Raw.GuildID != "" {
		tiers = append(tiers, fmt.Sprintf("%s/guilds/%s", base, r.Raw.GuildID))
	}

	for _, path := range tiers {
		record, err := r.Bot.Store.Get(ctx, path)
		if err != nil {
			logging.Debug("resonance", "Locale lookup %s failed: %v", path, err)
			continue
		}
		locale := gestalt.String(record, "locale")
		if locale != "" && locale != localeSentinel {
			return locale
		}
	}
	return r.Bot.Config.Locale
}

// Reply sends content back to the resonance's origin
func (r *Resonance) Reply(ctx context.Context, content string) error {
	_, err := r.Client.Send(ctx, r.Origin, content)
	return err
}

// Translate localizes a phrase for this resonance's resolved locale
func (r *Resonance) Translate(phrase string, replacers map[string]string) string {
	if r.Bot.Translator == nil {
		return phrase
	}
	return r.Bot.Translator.Translate(phrase, r.Locale, replacers)
}
