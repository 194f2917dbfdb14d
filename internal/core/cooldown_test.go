package core

import (
	"context"
	"testing"
	"time"

	"github.com/accordbot/accord/internal/gestalt"
)

func TestCooldownRoundTrip(t *testing.T) {
	manager := NewCooldownManager()
	sig := signature("frank", ClientDiscord, "ping", "")

	manager.Arm(sig, 50*time.Millisecond)
	if !manager.Active(sig) {
		t.Fatal("Expected signature active immediately after arming")
	}

	time.Sleep(120 * time.Millisecond)
	if manager.Active(sig) {
		t.Error("Expected signature expired after its duration")
	}
}

func TestCooldownPerUserIndependence(t *testing.T) {
	manager := NewCooldownManager()
	alice := signature("frank", ClientDiscord, "ping", "alice")
	bob := signature("frank", ClientDiscord, "ping", "bob")

	manager.Arm(alice, time.Minute)
	if !manager.Active(alice) {
		t.Error("Expected alice's cooldown active")
	}
	if manager.Active(bob) {
		t.Error("Expected bob's cooldown independent of alice's")
	}
	// The per-user signature does not collide with the global one
	if manager.Active(signature("frank", ClientDiscord, "ping", "")) {
		t.Error("Expected global signature independent of per-user signatures")
	}
}

// TestCooldownRearmExtendsWindow re-arms an active signature with a
// longer duration; the first window's expiry timer must not remove the
// replacement early.
func TestCooldownRearmExtendsWindow(t *testing.T) {
	manager := NewCooldownManager()
	sig := signature("frank", ClientDiscord, "ping", "")

	manager.Arm(sig, 50*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	manager.Arm(sig, 200*time.Millisecond)

	// Past the first window's expiry, inside the second's
	time.Sleep(60 * time.Millisecond)
	if !manager.Active(sig) {
		t.Fatal("Expected the re-armed window to survive the superseded timer")
	}

	time.Sleep(200 * time.Millisecond)
	if manager.Active(sig) {
		t.Error("Expected the re-armed window expired after its own duration")
	}
}

func TestCooldownZeroDurationDisabled(t *testing.T) {
	manager := NewCooldownManager()
	sig := signature("frank", ClientDiscord, "ping", "")

	manager.Arm(sig, 0)
	if manager.Active(sig) {
		t.Error("Expected zero duration to disable the scope")
	}
}

func TestSetCooldownResolvesClientOverride(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	// Static config disables cooldowns; the client override enables a
	// per-user one.
	pingTalent(t, bot, CommandConfig{})
	postClientConfig(t, bot, "ping", gestalt.Value{
		"cooldown": map[string]any{"global": 0, "user": 60},
	})

	r := testResonance(t, bot, client, "!ping", "123")
	r.Instruction = Interpret(context.Background(), r)

	bot.Cooldowns.SetCooldown(context.Background(), r)
	if bot.Cooldowns.Active(GlobalSignature(r)) {
		t.Error("Expected no global cooldown")
	}
	if !bot.Cooldowns.Active(UserSignature(r)) {
		t.Error("Expected per-user cooldown from the client override")
	}

	// Another author's per-user signature is unaffected
	other := testResonance(t, bot, client, "!ping", "456")
	other.Instruction = Interpret(context.Background(), other)
	if bot.Cooldowns.Check(context.Background(), other) {
		t.Error("Expected other users unaffected by a per-user cooldown")
	}
}
