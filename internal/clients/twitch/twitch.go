// Package twitch adapts Twitch chat (IRC over WebSocket) to the core
// client contract. It speaks just enough IRC to log in, join channels,
// and exchange PRIVMSGs.
package twitch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/accordbot/accord/internal/core"
	"github.com/accordbot/accord/internal/gestalt"
	"github.com/accordbot/accord/internal/logging"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const endpoint = "wss://irc-ws.chat.twitch.tv:443"

// Config holds Twitch connection settings
type Config struct {
	// Username is the bot's Twitch login name
	Username string
	// Token is the chat OAuth token, with or without the oauth: prefix
	Token string
	// Channels to join on connect, with or without the # prefix
	Channels []string
	// Owner is the Twitch username that bypasses authorization
	Owner string
}

// Client is the Twitch client adapter
type Client struct {
	bot *core.Bot
	cfg Config

	writeMu   sync.Mutex
	conn      *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Twitch client for the given bot
func New(bot *core.Bot, cfg Config) *Client {
	return &Client{
		bot:  bot,
		cfg:  cfg,
		done: make(chan struct{}),
	}
}

// Type identifies this adapter's platform
func (c *Client) Type() core.ClientType {
	return core.ClientTwitch
}

// Authenticate dials the chat gateway, logs in, joins the configured
// channels, and starts the read loop.
func (c *Client) Authenticate(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to dial Twitch chat: %w", err)
	}
	c.conn = conn

	token := c.cfg.Token
	if !strings.HasPrefix(token, "oauth:") {
		token = "oauth:" + token
	}
	if err := c.writeLine("PASS " + token); err != nil {
		return err
	}
	if err := c.writeLine("NICK " + strings.ToLower(c.cfg.Username)); err != nil {
		return err
	}
	for _, channel := range c.cfg.Channels {
		if !strings.HasPrefix(channel, "#") {
			channel = "#" + channel
		}
		if err := c.writeLine("JOIN " + channel); err != nil {
			return err
		}
	}
	logging.Info("twitch", "Connected as %s, joining %d channels", c.cfg.Username, len(c.cfg.Channels))

	go c.readLoop()
	return nil
}

// Disconnect closes the chat connection
func (c *Client) Disconnect() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

func (c *Client) writeLine(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line+"\r\n")); err != nil {
		return fmt.Errorf("failed to write to Twitch chat: %w", err)
	}
	return nil
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				logging.Warn("twitch", "Read failed, connection lost: %v", err)
			}
			return
		}
		for _, line := range strings.Split(string(data), "\r\n") {
			if line == "" {
				continue
			}
			c.handleLine(line)
		}
	}
}

func (c *Client) handleLine(line string) {
	if strings.HasPrefix(line, "PING") {
		if err := c.writeLine("PONG :tmi.twitch.tv"); err != nil {
			logging.Warn("twitch", "Failed to answer PING: %v", err)
		}
		return
	}

	nick, channel, text, ok := parsePrivmsg(line)
	if !ok {
		return
	}
	if strings.EqualFold(nick, c.cfg.Username) {
		return
	}

	raw := core.RawMessage{
		ID:         uuid.NewString(),
		Content:    text,
		AuthorID:   strings.ToLower(nick),
		AuthorName: nick,
		ChannelID:  channel,
	}
	logging.Debug("twitch", "Message from %s in %s: %s", nick, channel, logging.Truncate(text, 50))

	go c.bot.Handle(context.Background(), c, raw)
}

// parsePrivmsg extracts (nick, channel, text) from an IRC PRIVMSG line:
// :nick!user@host PRIVMSG #channel :text
func parsePrivmsg(line string) (nick, channel, text string, ok bool) {
	if !strings.HasPrefix(line, ":") {
		return "", "", "", false
	}
	rest := line[1:]

	bang := strings.IndexByte(rest, '!')
	space := strings.IndexByte(rest, ' ')
	if space < 0 {
		return "", "", "", false
	}
	if bang >= 0 && bang < space {
		nick = rest[:bang]
	} else {
		nick = rest[:space]
	}
	rest = rest[space+1:]

	if !strings.HasPrefix(rest, "PRIVMSG ") {
		return "", "", "", false
	}
	rest = strings.TrimPrefix(rest, "PRIVMSG ")

	sep := strings.Index(rest, " :")
	if sep < 0 {
		return "", "", "", false
	}
	channel = rest[:sep]
	text = rest[sep+2:]
	return nick, channel, text, true
}

// Send delivers content to a channel. Twitch does not return message
// handles over IRC, so the handle is always empty.
func (c *Client) Send(ctx context.Context, destination, content string) (string, error) {
	return "", c.writeLine("PRIVMSG " + destination + " :" + content)
}

// TypeFor is a no-op: Twitch chat has no typing indicator
func (c *Client) TypeFor(destination string, d time.Duration) {}

// OwnerID returns the configured privileged username
func (c *Client) OwnerID() string {
	return strings.ToLower(c.cfg.Owner)
}

// CommandPrefix returns the per-channel prefix override, if one is stored
func (c *Client) CommandPrefix(ctx context.Context, r *core.Resonance) string {
	path := fmt.Sprintf("/bots/%s/clients/twitch/channels/%s", c.bot.ID(), strings.TrimPrefix(r.Raw.ChannelID, "#"))
	record, err := c.bot.Store.Get(ctx, path)
	if err != nil {
		logging.Debug("twitch", "Prefix lookup failed: %v", err)
		return ""
	}
	return gestalt.String(record, "command_prefix")
}

// AuthorEminence resolves the author's tier from the per-channel user
// map, then the client-wide one, falling back to None.
func (c *Client) AuthorEminence(ctx context.Context, r *core.Resonance) core.Eminence {
	channel := strings.TrimPrefix(r.Raw.ChannelID, "#")
	paths := []string{
		fmt.Sprintf("/bots/%s/clients/twitch/channels/%s/eminences", c.bot.ID(), channel),
		fmt.Sprintf("/bots/%s/clients/twitch/eminences", c.bot.ID()),
	}
	for _, path := range paths {
		record, err := c.bot.Store.Get(ctx, path)
		if err != nil {
			logging.Debug("twitch", "Eminence lookup failed: %v", err)
			continue
		}
		name := gestalt.String(record, r.Raw.AuthorID)
		if name == "" {
			continue
		}
		eminence, err := core.ParseEminence(name)
		if err != nil {
			logging.Warn("twitch", "Bad eminence %q for user %s: %v", name, r.Raw.AuthorID, err)
			continue
		}
		return eminence
	}
	return core.EminenceNone
}

// Warrant applies the channel blacklist
func (c *Client) Warrant(ctx context.Context, r *core.Resonance, cfg *core.ClientCommandConfig) bool {
	if cfg == nil {
		return true
	}
	channel := strings.TrimPrefix(r.Raw.ChannelID, "#")
	for _, blocked := range cfg.Blacklist.Channels {
		if strings.TrimPrefix(blocked, "#") == channel {
			return false
		}
	}
	return true
}

// NotifyCooldown posts a plain notice; IRC offers no deletion
func (c *Client) NotifyCooldown(ctx context.Context, r *core.Resonance) {
	content := r.Translate("Hold on, {{command}} is cooling down.", map[string]string{
		"command": r.Instruction.Command.Key(),
	})
	if _, err := c.Send(ctx, r.Origin, "@"+r.Raw.AuthorName+" "+content); err != nil {
		logging.Warn("twitch", "Cooldown notice failed: %v", err)
	}
}

// PromptCondition matches a follow-up in the same channel from the same
// user; Twitch nicks compare case-insensitively.
func (c *Client) PromptCondition(p *core.Prompt, r *core.Resonance) bool {
	return r.Origin == p.Line && strings.EqualFold(r.Raw.AuthorID, p.UserID)
}
