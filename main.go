package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcsync-go/cogs"
	"mcsync-go/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

var session *discordgo.Session
var botStatus = "starting"
var ledger *utils.Ledger

func main() {
	godotenv.Load()

	// Start HTTP server for hosting platform health checks
	go startHealthServer()

	if err := utils.SetupDatabase(); err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	defer utils.CloseDatabase()
	log.Println("Database connected successfully")

	cache := utils.NewPlayerCache(utils.CacheFreshness)
	defer cache.Close()
	ledger = utils.NewLedger(utils.DB, cache, utils.NewSyncNotifier())

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		token = os.Getenv("BOT_TOKEN")
	}
	if token == "" {
		log.Fatal("DISCORD_TOKEN not set")
	}

	var err error
	session, err = discordgo.New("Bot " + token)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages

	session.AddHandler(onReady)
	session.AddHandler(onInteractionCreate)

	if err := session.Open(); err != nil {
		log.Fatalf("Failed to open Discord connection: %v", err)
	}
	defer session.Close()

	log.Println("Bot is now running. Press CTRL+C to exit.")
	botStatus = "running"

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	log.Println("Gracefully shutting down...")
	botStatus = "shutting_down"
}

func onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Discord bot logged in as %s (ID: %s)", event.User.Username, event.User.ID)
	botStatus = "online"

	if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: "Coinflip with your Minecraft balance",
				Type: discordgo.ActivityTypeGame,
			},
		},
		Status: "online",
	}); err != nil {
		log.Printf("Failed to update status: %v", err)
	}

	if err := registerSlashCommands(s); err != nil {
		log.Printf("Failed to register slash commands: %v", err)
	}
}

func registerSlashCommands(s *discordgo.Session) error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check bot latency and status",
		},
		{
			Name:        "balance",
			Description: "Check your synced Minecraft balance",
		},
		cogs.RegisterSyncCommand(),
		cogs.RegisterCoinflipCommand(),
	}

	for _, command := range commands {
		_, err := s.ApplicationCommandCreate(s.State.User.ID, "", command)
		if err != nil {
			return fmt.Errorf("failed to create command %s: %w", command.Name, err)
		}
	}

	log.Printf("Successfully registered %d slash commands", len(commands))
	return nil
}

func onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "ping":
		handlePingCommand(s, i)
	case "balance":
		handleBalanceCommand(s, i)
	case "sync":
		cogs.HandleSyncCommand(s, i)
	case "coinflip":
		cogs.HandleCoinflipCommand(s, i, ledger)
	}
}

func handlePingCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	latency := s.HeartbeatLatency()

	embed := &discordgo.MessageEmbed{
		Title: "🏓 Pong!",
		Color: utils.BotColor,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Latency",
				Value:  fmt.Sprintf("%dms", latency.Milliseconds()),
				Inline: true,
			},
			{
				Name:   "Status",
				Value:  "✅ Online",
				Inline: true,
			},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func handleBalanceCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var discordID string
	if i.Member != nil && i.Member.User != nil {
		discordID = i.Member.User.ID
	} else if i.User != nil {
		discordID = i.User.ID
	}

	player, err := utils.DB.FindPlayerByDiscordID(context.Background(), discordID)
	if err != nil {
		log.Printf("Balance lookup failed for discord id %s: %v", discordID, err)
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "An error occurred. Try again.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}
	if player == nil {
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "Link your Discord account with Minecraft first.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("💰 %s's Balance", player.Username),
		Color:       utils.BotColor,
		Description: fmt.Sprintf("Your synced Minecraft balance is **%d**", player.Balance),
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func startHealthServer() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Discord Bot Status: %s", botStatus)
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":"mcsync-bot","bot_status":"%s"}`, botStatus)
	})

	log.Printf("Health server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("Health server error: %v", err)
	}
}
