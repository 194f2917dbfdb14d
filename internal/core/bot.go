package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/accordbot/accord/internal/gestalt"
	"github.com/accordbot/accord/internal/i18n"
	"github.com/accordbot/accord/internal/journal"
	"github.com/accordbot/accord/internal/logging"
	"github.com/google/uuid"
)

// BotConfig is the bot's static configuration
type BotConfig struct {
	ID            string `yaml:"id"`
	Locale        string `yaml:"locale"`
	CommandPrefix string `yaml:"command_prefix"`
}

// Bot coordinates the message pipeline: every inbound message becomes a
// resonance, feeds the active prompts first (in-flight conversations get
// priority), then the listeners, then command interpretation, and finally
// authorization and execution.
type Bot struct {
	Config     BotConfig
	Store      gestalt.Provider
	Translator i18n.Translator
	Cooldowns  *CooldownManager
	// Journal records dispatch events when set
	Journal *journal.Journal

	mu        sync.Mutex
	clients   map[ClientType]Client
	commands  map[string]*Command
	aliases   map[string]string
	listeners []Listener
	talents   []*Talent
	prompts   []*Prompt
}

// NewBot creates a bot with an empty command table
func NewBot(cfg BotConfig, store gestalt.Provider, translator i18n.Translator) (*Bot, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("bot config missing id")
	}
	if store == nil {
		return nil, fmt.Errorf("bot %s has no store", cfg.ID)
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}
	return &Bot{
		Config:     cfg,
		Store:      store,
		Translator: translator,
		Cooldowns:  NewCooldownManager(),
		clients:    make(map[ClientType]Client),
		commands:   make(map[string]*Command),
		aliases:    make(map[string]string),
	}, nil
}

// ID returns the bot identifier
func (b *Bot) ID() string {
	return b.Config.ID
}

// RegisterClient attaches a client adapter to the bot
func (b *Bot) RegisterClient(c Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[c.Type()] = c
}

// Client returns the adapter for a client type, or nil
func (b *Bot) Client(ct ClientType) Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clients[ct]
}

// RegisterTalent loads a talent's commands and listeners into the bot.
// One bad command skips that command with a warning; it never fails the
// whole talent.
func (b *Bot) RegisterTalent(t *Talent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.talents = append(b.talents, t)
	for _, command := range t.Commands {
		key := command.Key()
		if key == "" {
			logging.Warn("bot", "Skipping command with no key in talent %s", t.Name)
			continue
		}
		if command.Executor == nil {
			logging.Warn("bot", "Skipping command %s: no executor", key)
			continue
		}
		if _, exists := b.commands[key]; exists {
			logging.Warn("bot", "Skipping command %s: key already registered", key)
			continue
		}
		command.Talent = t
		b.commands[key] = command
		for _, alias := range command.Config.Aliases {
			b.aliases[alias] = key
		}
		logging.Info("bot", "Registered command: %s (talent %s)", key, t.Name)
	}
	b.listeners = append(b.listeners, t.Listeners...)
}

// ResolveCommand looks a lower-cased command word up against the command
// table, resolving aliases to their canonical key.
func (b *Bot) ResolveCommand(word string) *Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	if command, ok := b.commands[word]; ok {
		return command
	}
	if key, ok := b.aliases[word]; ok {
		return b.commands[key]
	}
	return nil
}

// Commands returns the registered command table (for help output)
func (b *Bot) Commands() []*Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Command, 0, len(b.commands))
	for _, command := range b.commands {
		out = append(out, command)
	}
	return out
}

// Handle is the top-level entry for one inbound message. One malformed
// message must never take the process down, so the whole pipeline runs
// under a recover.
func (b *Bot) Handle(ctx context.Context, client Client, raw RawMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Warn("bot", "Panic handling message %s: %v", raw.ID, rec)
		}
	}()

	r := NewResonance(b, client, raw)
	if err := r.Build(ctx); err != nil {
		logging.Warn("bot", "Failed to build resonance: %v", err)
		return
	}

	// Prompts get the message before anything else; a prompt match and a
	// command interpretation may both fire for the same message.
	for _, p := range b.activePrompts() {
		p.Listen(ctx, r)
	}

	for _, listener := range b.snapshotListeners() {
		listener.Listen(ctx, r)
	}

	instruction := Interpret(ctx, r)
	if instruction == nil {
		return
	}
	r.Instruction = instruction

	b.record(journal.EntryInterpreted, r, "")

	authorizer := NewAuthorizer(b, client)
	allowed, reason := authorizer.Authorize(ctx, r)
	if !allowed {
		b.record(journal.EntryDenied, r, string(reason))
		return
	}

	// `--help` asks for the command's usage instead of running it; help
	// never arms a cooldown.
	if instruction.Arguments.Flags["help"] {
		if err := instruction.Command.Executor.Help(ctx, r); err != nil {
			logging.Warn("bot", "Help for %s failed: %v", instruction.Command.Key(), err)
		}
		return
	}

	if err := instruction.Command.Executor.Execute(ctx, r); err != nil {
		logging.Warn("bot", "Command %s failed: %v", instruction.Command.Key(), err)
		b.record(journal.EntryFailed, r, err.Error())
		return
	}
	b.record(journal.EntryExecuted, r, "")

	b.Cooldowns.SetCooldown(ctx, r)
}

// record writes a dispatch event to the journal when one is configured
func (b *Bot) record(typ journal.EntryType, r *Resonance, detail string) {
	if b.Journal == nil {
		return
	}
	entry := journal.Entry{
		Type:   typ,
		Bot:    b.ID(),
		Client: string(r.Client.Type()),
		Author: r.Raw.AuthorID,
		Detail: detail,
	}
	if r.Instruction != nil {
		entry.Command = r.Instruction.Command.Key()
	}
	if err := b.Journal.Log(entry); err != nil {
		logging.Debug("bot", "Journal write failed: %v", err)
	}
}

func (b *Bot) snapshotListeners() []Listener {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Listener, len(b.listeners))
	copy(out, b.listeners)
	return out
}

// NewPrompt registers a pending expectation of a follow-up message. The
// caller runs Await to block on the outcome.
func (b *Bot) NewPrompt(req PromptRequest) (*Prompt, error) {
	if req.Resonance == nil {
		return nil, fmt.Errorf("prompt needs its triggering resonance")
	}
	if req.OnResponse == nil {
		return nil, fmt.Errorf("prompt needs a response callback")
	}
	if req.Lifespan <= 0 {
		req.Lifespan = 60 * time.Second
	}
	if req.UserID == "" {
		req.UserID = req.Resonance.Raw.AuthorID
	}
	if req.Line == "" {
		req.Line = req.Resonance.Origin
	}

	p := &Prompt{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Line:       req.Line,
		Resonance:  req.Resonance,
		Lifespan:   req.Lifespan,
		bot:        b,
		clientType: req.Resonance.Client.Type(),
		onResponse: req.OnResponse,
		onError:    req.OnError,
		condition:  req.Condition,
		matched:    make(chan *Resonance, 1),
		done:       make(chan struct{}),
	}

	b.mu.Lock()
	b.prompts = append(b.prompts, p)
	b.mu.Unlock()
	return p, nil
}

func (b *Bot) activePrompts() []*Prompt {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Prompt, len(b.prompts))
	copy(out, b.prompts)
	return out
}

// removePrompt drops a prompt from the active list; called exactly once
// per prompt via its disabled guard.
func (b *Bot) removePrompt(p *Prompt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, candidate := range b.prompts {
		if candidate == p {
			b.prompts = append(b.prompts[:i], b.prompts[i+1:]...)
			return
		}
	}
}

// PromptCount reports how many prompts are currently pending
func (b *Bot) PromptCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.prompts)
}

// Shutdown disables every pending prompt and disconnects every client
func (b *Bot) Shutdown() {
	for _, p := range b.activePrompts() {
		p.Disable()
	}
	b.mu.Lock()
	clients := make([]Client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.Unlock()
	for _, c := range clients {
		if err := c.Disconnect(); err != nil {
			logging.Warn("bot", "Disconnect %s failed: %v", c.Type(), err)
		}
	}
}
