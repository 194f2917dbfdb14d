package core

import (
	"context"
	"testing"
	"time"

	"github.com/accordbot/accord/internal/gestalt"
)

func authorize(t *testing.T, bot *Bot, client Client, r *Resonance) (bool, DenialReason) {
	t.Helper()
	inst := Interpret(context.Background(), r)
	if inst == nil {
		t.Fatal("Expected an instruction")
	}
	r.Instruction = inst
	return NewAuthorizer(bot, client).Authorize(context.Background(), r)
}

func postClientConfig(t *testing.T, bot *Bot, key string, cfg gestalt.Value) {
	t.Helper()
	path := "/bots/" + bot.ID() + "/commands/" + key + "/clients/discord"
	if _, err := bot.Store.Post(context.Background(), path, cfg); err != nil {
		t.Fatalf("Failed to post client config: %v", err)
	}
}

func TestAuthorizeAllowsByDefault(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	pingTalent(t, bot, CommandConfig{})

	allowed, reason := authorize(t, bot, client, testResonance(t, bot, client, "!ping", "123"))
	if !allowed {
		t.Errorf("Expected allow, denied for %s", reason)
	}
}

func TestAuthorizeOwnerBypassesEverything(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	client.owner = "boss"
	inactive := false
	pingTalent(t, bot, CommandConfig{Key: "ping", Active: &inactive})

	allowed, _ := authorize(t, bot, client, testResonance(t, bot, client, "!ping", "boss"))
	if !allowed {
		t.Error("Expected the owner to bypass the activation check")
	}

	allowed, reason := authorize(t, bot, client, testResonance(t, bot, client, "!ping", "123"))
	if allowed || reason != DenialActivation {
		t.Errorf("Expected activation denial for non-owner, got allowed=%v reason=%s", allowed, reason)
	}
}

func TestAuthorizeActivationDeniesBeforeArguments(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	inactive := false
	// Deactivated AND missing required input: the first failing check wins
	pingTalent(t, bot, CommandConfig{
		Key:    "ping",
		Active: &inactive,
		Input:  InputSpec{Required: true},
	})
	postClientConfig(t, bot, "ping", gestalt.Value{})

	allowed, reason := authorize(t, bot, client, testResonance(t, bot, client, "!ping", "123"))
	if allowed {
		t.Fatal("Expected denial")
	}
	if reason != DenialActivation {
		t.Errorf("Expected the activation reason, got %s", reason)
	}
}

func TestAuthorizeClientOverrideDeactivates(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	pingTalent(t, bot, CommandConfig{})
	postClientConfig(t, bot, "ping", gestalt.Value{"active": false})

	allowed, reason := authorize(t, bot, client, testResonance(t, bot, client, "!ping", "123"))
	if allowed || reason != DenialActivation {
		t.Errorf("Expected client override to deactivate, got allowed=%v reason=%s", allowed, reason)
	}
}

func TestAuthorizeCooldownDenialNotifies(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	pingTalent(t, bot, CommandConfig{})

	r := testResonance(t, bot, client, "!ping", "123")
	r.Instruction = Interpret(context.Background(), r)
	bot.Cooldowns.Arm(GlobalSignature(r), time.Minute)

	allowed, reason := NewAuthorizer(bot, client).Authorize(context.Background(), r)
	if allowed || reason != DenialCooldown {
		t.Errorf("Expected cooldown denial, got allowed=%v reason=%s", allowed, reason)
	}
	if client.notices() != 1 {
		t.Errorf("Expected one cooldown notification, got %d", client.notices())
	}
}

func TestAuthorizeEmptyClientConfigShortcut(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	// Eminence is required by static config, but with no client-specific
	// record in the store there is nothing further to check against.
	pingTalent(t, bot, CommandConfig{Key: "ping", Eminence: "Joker"})

	allowed, reason := authorize(t, bot, client, testResonance(t, bot, client, "!ping", "nobody"))
	if !allowed {
		t.Errorf("Expected the empty-client-config shortcut to allow, denied for %s", reason)
	}
}

func TestAuthorizePrivacy(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	pingTalent(t, bot, CommandConfig{})
	postClientConfig(t, bot, "ping", gestalt.Value{})

	dm := NewResonance(bot, client, RawMessage{
		ID: "m-1", Content: "!ping", AuthorID: "123", ChannelID: "dm-1", Private: true,
	})
	if err := dm.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	allowed, reason := authorize(t, bot, client, dm)
	if allowed || reason != DenialPrivacy {
		t.Errorf("Expected privacy denial in DMs, got allowed=%v reason=%s", allowed, reason)
	}

	// Explicit client-side enablement lets the DM through
	postClientConfig(t, bot, "ping", gestalt.Value{"direct_messages": true})
	dm2 := NewResonance(bot, client, RawMessage{
		ID: "m-2", Content: "!ping", AuthorID: "123", ChannelID: "dm-1", Private: true,
	})
	if err := dm2.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	allowed, reason = authorize(t, bot, client, dm2)
	if !allowed {
		t.Errorf("Expected DM-enabled command to pass, denied for %s", reason)
	}
}

func TestAuthorizeUserBlacklist(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	pingTalent(t, bot, CommandConfig{})
	postClientConfig(t, bot, "ping", gestalt.Value{
		"blacklist": map[string]any{"users": []string{"123"}},
	})

	allowed, reason := authorize(t, bot, client, testResonance(t, bot, client, "!ping", "123"))
	if allowed || reason != DenialBlacklist {
		t.Errorf("Expected blacklist denial, got allowed=%v reason=%s", allowed, reason)
	}

	allowed, _ = authorize(t, bot, client, testResonance(t, bot, client, "!ping", "456"))
	if !allowed {
		t.Error("Expected other users to pass the blacklist")
	}
}

func TestAuthorizeEminenceMonotonicity(t *testing.T) {
	tiers := []Eminence{EminenceNone, EminenceAficionado, EminenceConfidant, EminenceThief, EminenceJoker}

	for _, required := range tiers {
		for _, held := range tiers {
			bot := newTestBot(t)
			client := newTestClient()
			client.eminences["123"] = held
			pingTalent(t, bot, CommandConfig{})
			postClientConfig(t, bot, "ping", gestalt.Value{"eminence": required.String()})

			allowed, reason := authorize(t, bot, client, testResonance(t, bot, client, "!ping", "123"))
			if held >= required && !allowed {
				t.Errorf("Eminence %s should satisfy required %s, denied for %s", held, required, reason)
			}
			if held < required && (allowed || reason != DenialEminence) {
				t.Errorf("Eminence %s should not satisfy required %s", held, required)
			}
		}
	}
}

func TestAuthorizeArgumentValidation(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	pingTalent(t, bot, CommandConfig{
		Key:     "ping",
		Options: []ArgSpec{{Key: "d", Description: "delay"}},
		Flags:   []ArgSpec{{Key: "loud", Eminence: "Thief"}},
	})
	postClientConfig(t, bot, "ping", gestalt.Value{})

	// Declared option passes
	allowed, reason := authorize(t, bot, client, testResonance(t, bot, client, "!ping -d 3", "123"))
	if !allowed {
		t.Errorf("Expected declared option to pass, denied for %s", reason)
	}

	// Unknown argument is a hard error converted to a denial
	allowed, reason = authorize(t, bot, client, testResonance(t, bot, client, "!ping --bogus", "123"))
	if allowed || reason != DenialArguments {
		t.Errorf("Expected argument denial for unknown argument, got allowed=%v reason=%s", allowed, reason)
	}

	// A flag gated on eminence denies an unprivileged author...
	allowed, reason = authorize(t, bot, client, testResonance(t, bot, client, "!ping --loud", "123"))
	if allowed || reason != DenialArguments {
		t.Errorf("Expected argument denial for gated flag, got allowed=%v reason=%s", allowed, reason)
	}

	// ...and passes once the author holds the tier
	client.eminences["123"] = EminenceThief
	allowed, reason = authorize(t, bot, client, testResonance(t, bot, client, "!ping --loud", "123"))
	if !allowed {
		t.Errorf("Expected gated flag to pass for Thief, denied for %s", reason)
	}
}

func TestAuthorizeRequiredInput(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	pingTalent(t, bot, CommandConfig{Key: "ping", Input: InputSpec{Required: true}})
	postClientConfig(t, bot, "ping", gestalt.Value{})

	allowed, reason := authorize(t, bot, client, testResonance(t, bot, client, "!ping", "123"))
	if allowed || reason != DenialArguments {
		t.Errorf("Expected denial for missing required input, got allowed=%v reason=%s", allowed, reason)
	}

	allowed, _ = authorize(t, bot, client, testResonance(t, bot, client, "!ping something", "123"))
	if !allowed {
		t.Error("Expected supplied input to pass")
	}
}

// TestAuthorizeRequiredInputIgnoresArgumentTokens denies a flag-only
// invocation of a command that requires positional input; flag and
// option tokens are not input.
func TestAuthorizeRequiredInputIgnoresArgumentTokens(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	pingTalent(t, bot, CommandConfig{
		Key:   "ping",
		Input: InputSpec{Required: true},
		Flags: []ArgSpec{{Key: "loud"}},
	})
	postClientConfig(t, bot, "ping", gestalt.Value{})

	allowed, reason := authorize(t, bot, client, testResonance(t, bot, client, "!ping --loud", "123"))
	if allowed || reason != DenialArguments {
		t.Errorf("Expected a flag-only invocation denied for missing input, got allowed=%v reason=%s", allowed, reason)
	}

	allowed, reason = authorize(t, bot, client, testResonance(t, bot, client, "!ping --loud target", "123"))
	if !allowed {
		t.Errorf("Expected positional input alongside the flag to pass, denied for %s", reason)
	}
}

func TestAuthorizeWarrant(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	client.denyWarrant = true
	pingTalent(t, bot, CommandConfig{})
	postClientConfig(t, bot, "ping", gestalt.Value{})

	allowed, reason := authorize(t, bot, client, testResonance(t, bot, client, "!ping", "123"))
	if allowed || reason != DenialWarrant {
		t.Errorf("Expected warrant denial, got allowed=%v reason=%s", allowed, reason)
	}
}
