// Package discord adapts a Discord connection to the core client contract.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/accordbot/accord/internal/core"
	"github.com/accordbot/accord/internal/gestalt"
	"github.com/accordbot/accord/internal/logging"
	"github.com/bwmarrin/discordgo"
)

// Config holds Discord connection settings
type Config struct {
	Token string
	// Owner is the Discord user ID that bypasses authorization
	Owner string
	// NoticeLifetime is how long a cooldown notice stays up before the
	// client deletes it again
	NoticeLifetime time.Duration
}

// Client is the Discord client adapter
type Client struct {
	session *discordgo.Session
	bot     *core.Bot
	cfg     Config
	selfID  string
}

// New creates a Discord client for the given bot
func New(bot *core.Bot, cfg Config) (*Client, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	if cfg.NoticeLifetime <= 0 {
		cfg.NoticeLifetime = 5 * time.Second
	}

	c := &Client{
		session: session,
		bot:     bot,
		cfg:     cfg,
	}
	session.AddHandler(c.handleMessage)

	// We only need message content
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return c, nil
}

// Type identifies this adapter's platform
func (c *Client) Type() core.ClientType {
	return core.ClientDiscord
}

// Authenticate connects to Discord and begins listening
func (c *Client) Authenticate(ctx context.Context) error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	// Bot's own user ID for self-filtering
	c.selfID = c.session.State.User.ID
	logging.Info("discord", "Connected as %s", c.session.State.User.Username)
	return nil
}

// Disconnect closes the Discord connection
func (c *Client) Disconnect() error {
	return c.session.Close()
}

// handleMessage feeds every inbound Discord message to the bot pipeline
func (c *Client) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from self
	if m.Author.ID == c.selfID || m.Author.Bot {
		return
	}

	raw := core.RawMessage{
		ID:         m.ID,
		Content:    m.Content,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		Private:    m.GuildID == "",
	}
	logging.Debug("discord", "Message from %s: %s", m.Author.Username, logging.Truncate(m.Content, 50))

	go c.bot.Handle(context.Background(), c, raw)
}

// Send delivers content to a channel and returns the sent message ID
func (c *Client) Send(ctx context.Context, destination, content string) (string, error) {
	msg, err := c.session.ChannelMessageSend(destination, content)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return msg.ID, nil
}

// TypeFor emits the typing indicator for roughly the given duration.
// Discord's indicator lasts about ten seconds per trigger.
func (c *Client) TypeFor(destination string, d time.Duration) {
	go func() {
		deadline := time.Now().Add(d)
		for time.Now().Before(deadline) {
			if err := c.session.ChannelTyping(destination); err != nil {
				return
			}
			wait := 8 * time.Second
			if remaining := time.Until(deadline); remaining < wait {
				wait = remaining
			}
			time.Sleep(wait)
		}
	}()
}

// OwnerID returns the configured privileged user ID
func (c *Client) OwnerID() string {
	return c.cfg.Owner
}

// CommandPrefix returns the per-guild prefix override, if one is stored
func (c *Client) CommandPrefix(ctx context.Context, r *core.Resonance) string {
	if r.Raw.GuildID == "" {
		return ""
	}
	path := fmt.Sprintf("/bots/%s/clients/discord/guilds/%s", c.bot.ID(), r.Raw.GuildID)
	record, err := c.bot.Store.Get(ctx, path)
	if err != nil {
		logging.Debug("discord", "Prefix lookup failed: %v", err)
		return ""
	}
	return gestalt.String(record, "command_prefix")
}

// AuthorEminence resolves the author's tier from the per-guild role map,
// then the client-wide one, falling back to None.
func (c *Client) AuthorEminence(ctx context.Context, r *core.Resonance) core.Eminence {
	paths := []string{}
	if r.Raw.GuildID != "" {
		paths = append(paths, fmt.Sprintf("/bots/%s/clients/discord/guilds/%s/eminences", c.bot.ID(), r.Raw.GuildID))
	}
	paths = append(paths, fmt.Sprintf("/bots/%s/clients/discord/eminences", c.bot.ID()))

	for _, path := range paths {
		record, err := c.bot.Store.Get(ctx, path)
		if err != nil {
			logging.Debug("discord", "Eminence lookup failed: %v", err)
			continue
		}
		name := gestalt.String(record, r.Raw.AuthorID)
		if name == "" {
			continue
		}
		eminence, err := core.ParseEminence(name)
		if err != nil {
			logging.Warn("discord", "Bad eminence %q for user %s: %v", name, r.Raw.AuthorID, err)
			continue
		}
		return eminence
	}
	return core.EminenceNone
}

// Warrant applies the guild and channel blacklists
func (c *Client) Warrant(ctx context.Context, r *core.Resonance, cfg *core.ClientCommandConfig) bool {
	if cfg == nil {
		return true
	}
	for _, guild := range cfg.Blacklist.Guilds {
		if guild == r.Raw.GuildID {
			return false
		}
	}
	for _, channel := range cfg.Blacklist.Channels {
		if channel == r.Raw.ChannelID {
			return false
		}
	}
	return true
}

// NotifyCooldown posts an ephemeral-style notice and deletes it shortly
// after, keeping channels clean.
func (c *Client) NotifyCooldown(ctx context.Context, r *core.Resonance) {
	content := r.Translate("Hold on, {{command}} is cooling down.", map[string]string{
		"command": r.Instruction.Command.Key(),
	})
	msgID, err := c.Send(ctx, r.Origin, content)
	if err != nil {
		logging.Warn("discord", "Cooldown notice failed: %v", err)
		return
	}
	channelID := r.Origin
	time.AfterFunc(c.cfg.NoticeLifetime, func() {
		if err := c.session.ChannelMessageDelete(channelID, msgID); err != nil {
			logging.Debug("discord", "Failed to delete cooldown notice: %v", err)
		}
	})
}

// PromptCondition matches a follow-up on the same channel from the same user
func (c *Client) PromptCondition(p *core.Prompt, r *core.Resonance) bool {
	return r.Origin == p.Line && r.Raw.AuthorID == p.UserID
}
