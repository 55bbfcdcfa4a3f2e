package cogs

import (
	"context"
	"log"

	"mcsync-go/utils"

	"github.com/bwmarrin/discordgo"
)

// RegisterSyncCommand registers the sync slash command
func RegisterSyncCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "sync",
		Description: "Link your Discord account to your Minecraft account",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "code",
				Description: "The sync code shown to you in game",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "username",
				Description: "Your Minecraft username",
				Required:    true,
			},
		},
	}
}

// HandleSyncCommand handles the /sync slash command. The code+username pair is
// matched against the row the game server wrote; on a match the Discord ID is
// set exactly once and never overwritten.
func HandleSyncCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	var code, username string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "code":
			code = opt.StringValue()
		case "username":
			username = opt.StringValue()
		}
	}

	if err := deferEphemeral(s, i); err != nil {
		log.Printf("Failed to defer sync reply: %v", err)
		return
	}

	if code == "" || username == "" {
		editReply(s, i, "Please provide both a code and a Minecraft username.")
		return
	}

	player, err := utils.DB.FindPlayerBySyncCode(ctx, code, username)
	if err != nil {
		log.Printf("Sync lookup failed for %s: %v", username, err)
		editReply(s, i, GenericErrorMessage)
		return
	}
	if player == nil {
		editReply(s, i, "Invalid sync code or Minecraft username. Please try again.")
		return
	}
	if player.DiscordID != nil {
		editReply(s, i, "This account is already synced with a Discord user.")
		return
	}

	discordID := interactionUserID(i)
	linked, err := utils.DB.LinkDiscordAccount(ctx, code, username, discordID)
	if err != nil {
		log.Printf("Sync link failed for %s: %v", username, err)
		editReply(s, i, GenericErrorMessage)
		return
	}
	if !linked {
		// Lost a race with another /sync for the same row.
		editReply(s, i, "This account is already synced with a Discord user.")
		return
	}

	log.Printf("Synced Minecraft username %s with Discord user %s", username, discordID)
	editReply(s, i, "Account synced successfully.")
}
