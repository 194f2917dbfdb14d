package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/accordbot/accord/internal/clients/discord"
	"github.com/accordbot/accord/internal/clients/twitch"
	"github.com/accordbot/accord/internal/config"
	"github.com/accordbot/accord/internal/core"
	"github.com/accordbot/accord/internal/gestalt"
	"github.com/accordbot/accord/internal/i18n"
	"github.com/accordbot/accord/internal/journal"
	"github.com/accordbot/accord/internal/talents"
	"github.com/accordbot/accord/internal/talents/coinflip"
	"github.com/accordbot/accord/internal/talents/greeter"
	"github.com/accordbot/accord/internal/talents/ping"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("accord - multi-platform chat bot")
	log.Println("================================")

	// Load .env file (optional - won't error if missing)
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment variables")
	} else {
		log.Println("[config] Loaded .env file")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/bot.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ensure state directory exists
	if err := os.MkdirAll(cfg.StatePath, 0755); err != nil {
		log.Fatalf("Failed to create state directory: %v", err)
	}

	// Persistence
	var store gestalt.Provider
	closeStore := func() {}
	switch cfg.Gestalt.Driver {
	case "sqlite":
		sqliteStore, err := gestalt.OpenSQLite(filepath.Join(cfg.StatePath, "gestalt.db"))
		if err != nil {
			log.Fatalf("Failed to open gestalt database: %v", err)
		}
		store = sqliteStore
		closeStore = func() { sqliteStore.Close() }
	default:
		fileStore := gestalt.NewFileStore(filepath.Join(cfg.StatePath, "gestalt.json"))
		if err := fileStore.Load(); err != nil {
			log.Printf("Warning: failed to load gestalt: %v", err)
		}
		store = fileStore
	}

	// Translations
	catalog := i18n.NewCatalog(cfg.Bot.Locale)
	if cfg.LocalesDir != "" {
		if err := catalog.LoadDir(cfg.LocalesDir); err != nil {
			log.Printf("Warning: failed to load locales: %v", err)
		}
	}

	bot, err := core.NewBot(cfg.Bot, store, catalog)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	bot.Journal = journal.New(cfg.StatePath)

	// Talents: executors and listeners bind by key, configs come from files
	registry := talents.NewRegistry()
	registry.RegisterExecutor(ping.Key, ping.New())
	registry.RegisterExecutor(coinflip.Key, coinflip.New())
	registry.RegisterListener("social", greeter.New())

	if cfg.TalentsDir != "" {
		loaded, err := registry.Load(cfg.TalentsDir)
		if err != nil {
			log.Fatalf("Failed to load talents: %v", err)
		}
		for _, talent := range loaded {
			bot.RegisterTalent(talent)
		}
	}

	// Clients
	ctx := context.Background()
	if cfg.Discord != nil && cfg.Discord.Enabled {
		token := os.Getenv("DISCORD_TOKEN")
		if token == "" {
			log.Fatal("DISCORD_TOKEN environment variable required")
		}
		client, err := discord.New(bot, discord.Config{Token: token, Owner: cfg.Discord.Owner})
		if err != nil {
			log.Fatalf("Failed to create Discord client: %v", err)
		}
		bot.RegisterClient(client)
		if err := client.Authenticate(ctx); err != nil {
			log.Fatalf("Failed to connect to Discord: %v", err)
		}
	}
	if cfg.Twitch != nil && cfg.Twitch.Enabled {
		token := os.Getenv("TWITCH_TOKEN")
		if token == "" {
			log.Fatal("TWITCH_TOKEN environment variable required")
		}
		client := twitch.New(bot, twitch.Config{
			Username: cfg.Twitch.Username,
			Token:    token,
			Channels: cfg.Twitch.Channels,
			Owner:    cfg.Twitch.Owner,
		})
		bot.RegisterClient(client)
		if err := client.Authenticate(ctx); err != nil {
			log.Fatalf("Failed to connect to Twitch: %v", err)
		}
	}

	log.Println("[main] All subsystems started. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] Shutting down...")
	bot.Shutdown()
	closeStore()
	log.Println("[main] Goodbye!")
}
