package core

import (
	"context"
	"testing"

	"github.com/accordbot/accord/internal/gestalt"
)

func setLocale(t *testing.T, bot *Bot, tier, id, locale string) {
	t.Helper()
	path := "/i18n/" + bot.ID() + "/clients/discord/" + tier + "/" + id
	if _, err := bot.Store.Post(context.Background(), path, gestalt.Value{"locale": locale}); err != nil {
		t.Fatalf("Failed to store locale: %v", err)
	}
}

func TestResonanceBuildDerivesContext(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()

	r := testResonance(t, bot, client, "hello", "123")
	if r.Origin != "chan-1" {
		t.Errorf("Expected origin chan-1, got %q", r.Origin)
	}
	if r.Privacy != PrivacyPublic {
		t.Errorf("Expected public privacy, got %s", r.Privacy)
	}
	if r.Instruction != nil {
		t.Error("Expected no instruction before interpretation")
	}

	dm := NewResonance(bot, client, RawMessage{Content: "hi", AuthorID: "123", ChannelID: "dm-1", Private: true})
	if err := dm.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if dm.Privacy != PrivacyPrivate {
		t.Errorf("Expected private privacy, got %s", dm.Privacy)
	}
}

func TestLocaleFallsBackToBotDefault(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()

	r := testResonance(t, bot, client, "hello", "123")
	if r.Locale != "en" {
		t.Errorf("Expected bot default locale, got %q", r.Locale)
	}
}

func TestLocaleGuildTier(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	setLocale(t, bot, "guilds", "guild-1", "fr")

	r := testResonance(t, bot, client, "hello", "123")
	if r.Locale != "fr" {
		t.Errorf("Expected guild locale fr, got %q", r.Locale)
	}
}

func TestLocaleUserTierWins(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	setLocale(t, bot, "guilds", "guild-1", "fr")
	setLocale(t, bot, "channels", "chan-1", "de")
	setLocale(t, bot, "users", "123", "jp")

	r := testResonance(t, bot, client, "hello", "123")
	if r.Locale != "jp" {
		t.Errorf("Expected user locale jp to win, got %q", r.Locale)
	}

	// Other users fall through to the channel tier
	other := testResonance(t, bot, client, "hello", "456")
	if other.Locale != "de" {
		t.Errorf("Expected channel locale de, got %q", other.Locale)
	}
}

func TestLocaleDefaultSentinelFallsThrough(t *testing.T) {
	bot := newTestBot(t)
	client := newTestClient()
	setLocale(t, bot, "users", "123", "default")
	setLocale(t, bot, "guilds", "guild-1", "fr")

	r := testResonance(t, bot, client, "hello", "123")
	if r.Locale != "fr" {
		t.Errorf("Expected the literal default sentinel to fall through to fr, got %q", r.Locale)
	}
}
