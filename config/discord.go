package config

import (
	"log"
	"os"

	"github.com/bwmarrin/discordgo"
)

// InitDiscord opens a Discord session when DISCORD_TOKEN is set. The
// session is optional: without it the publisher refuses to run and the
// notifier falls back to email.
func InitDiscord() *discordgo.Session {
	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		log.Println("DISCORD_TOKEN not set, Discord publishing disabled")
		return nil
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		log.Printf("Warning: failed to create Discord session: %v", err)
		return nil
	}

	// REST-only usage; the gateway connection keeps the session healthy
	// and lets us resolve channels.
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	if err := dg.Open(); err != nil {
		log.Printf("Warning: failed to open Discord connection: %v", err)
		return nil
	}

	log.Println("Discord session connected")
	return dg
}
