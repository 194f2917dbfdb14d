package core

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/accordbot/accord/internal/gestalt"
	"github.com/accordbot/accord/internal/i18n"
)

// testClient is an in-memory client adapter for exercising the pipeline
type testClient struct {
	ctype  ClientType
	owner  string
	prefix string // contextual prefix override, "" = bot default

	mu              sync.Mutex
	sent            []string
	eminences       map[string]Eminence
	denyWarrant     bool
	cooldownNotices int
}

func newTestClient() *testClient {
	return &testClient{
		ctype:     ClientDiscord,
		eminences: make(map[string]Eminence),
	}
}

func (c *testClient) Type() ClientType                       { return c.ctype }
func (c *testClient) Authenticate(ctx context.Context) error { return nil }
func (c *testClient) Disconnect() error                      { return nil }

func (c *testClient) Send(ctx context.Context, destination, content string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, content)
	return "msg-1", nil
}

func (c *testClient) TypeFor(destination string, d time.Duration) {}

func (c *testClient) OwnerID() string { return c.owner }

func (c *testClient) CommandPrefix(ctx context.Context, r *Resonance) string { return c.prefix }

func (c *testClient) AuthorEminence(ctx context.Context, r *Resonance) Eminence {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eminences[r.Raw.AuthorID]
}

func (c *testClient) Warrant(ctx context.Context, r *Resonance, cfg *ClientCommandConfig) bool {
	return !c.denyWarrant
}

func (c *testClient) NotifyCooldown(ctx context.Context, r *Resonance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cooldownNotices++
}

func (c *testClient) PromptCondition(p *Prompt, r *Resonance) bool {
	return r.Origin == p.Line && r.Raw.AuthorID == p.UserID
}

func (c *testClient) notices() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cooldownNotices
}

// recordingExecutor counts executions and can fail or panic on demand
type recordingExecutor struct {
	mu       sync.Mutex
	executed int
	helped   int
	err      error
	panics   bool
}

func (e *recordingExecutor) Execute(ctx context.Context, r *Resonance) error {
	if e.panics {
		panic("executor exploded")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executed++
	return e.err
}

func (e *recordingExecutor) Help(ctx context.Context, r *Resonance) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.helped++
	return nil
}

func (e *recordingExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.executed
}

func (e *recordingExecutor) helps() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.helped
}

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	store := gestalt.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	bot, err := NewBot(BotConfig{ID: "frank", Locale: "en", CommandPrefix: "!"}, store, i18n.NewCatalog("en"))
	if err != nil {
		t.Fatalf("Failed to create bot: %v", err)
	}
	return bot
}

// pingTalent registers a ping command (alias p) and returns its executor
func pingTalent(t *testing.T, bot *Bot, cfg CommandConfig) *recordingExecutor {
	t.Helper()
	if cfg.Key == "" {
		cfg.Key = "ping"
		cfg.Aliases = []string{"p"}
	}
	executor := &recordingExecutor{}
	bot.RegisterTalent(&Talent{
		Name:     "testing",
		Commands: []*Command{{Config: cfg, Executor: executor}},
	})
	return executor
}

// testResonance builds a public guild message ready for dispatch
func testResonance(t *testing.T, bot *Bot, client Client, content, author string) *Resonance {
	t.Helper()
	r := NewResonance(bot, client, RawMessage{
		ID:        "m-1",
		Content:   content,
		AuthorID:  author,
		ChannelID: "chan-1",
		GuildID:   "guild-1",
	})
	if err := r.Build(context.Background()); err != nil {
		t.Fatalf("Failed to build resonance: %v", err)
	}
	return r
}
