package cogs

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"mcsync-go/utils"

	"github.com/bwmarrin/discordgo"
)

// GenericErrorMessage is the single reply used for infrastructure failures.
const GenericErrorMessage = "An error occurred. Try again."

// RegisterCoinflipCommand registers the coinflip slash command
func RegisterCoinflipCommand() *discordgo.ApplicationCommand {
	minBet := float64(1)
	return &discordgo.ApplicationCommand{
		Name:        "coinflip",
		Description: "Play a 50/50 game using your Minecraft balance!",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "bet",
				Description: "Bet amount",
				Required:    true,
				MinValue:    &minBet,
			},
		},
	}
}

// HandleCoinflipCommand handles the /coinflip slash command
func HandleCoinflipCommand(s *discordgo.Session, i *discordgo.InteractionCreate, ledger *utils.Ledger) {
	ctx := context.Background()
	bet := i.ApplicationCommandData().Options[0].IntValue()
	discordID := interactionUserID(i)

	player, err := utils.DB.FindPlayerByDiscordID(ctx, discordID)
	if err != nil {
		log.Printf("Coinflip player lookup failed for discord id %s: %v", discordID, err)
		respondEphemeral(s, i, GenericErrorMessage)
		return
	}
	if player == nil {
		respondEphemeral(s, i, "Link your Discord account with Minecraft first.")
		return
	}
	if bet <= 0 {
		respondEphemeral(s, i, "Bet must be greater than 0.")
		return
	}

	if err := deferEphemeral(s, i); err != nil {
		log.Printf("Failed to defer coinflip reply: %v", err)
		return
	}

	message, err := settleCoinflip(ctx, ledger, player.Username, bet, func() bool {
		return rand.Intn(2) == 0
	})
	if err != nil {
		log.Printf("Coinflip error for %s: %v", player.Username, err)
		message = GenericErrorMessage
	}

	editReply(s, i, message)
}

// settleCoinflip debits the bet, draws the outcome, and credits double the bet
// on a win. The flip is not drawn until the debit has committed, so a rejected
// bet consumes no randomness and triggers no further mutation.
func settleCoinflip(ctx context.Context, ledger *utils.Ledger, username string, bet int64, flip func() bool) (string, error) {
	debit, err := ledger.ApplyAdjustment(ctx, username, -bet)
	if err != nil {
		return "", err
	}
	if debit.Status != utils.AdjustSuccess {
		return debit.Message, nil
	}

	if !flip() {
		return fmt.Sprintf("😞 You lost %d. Better luck next time.", bet), nil
	}

	winnings := bet * 2
	credit, err := ledger.ApplyAdjustment(ctx, username, winnings)
	if err != nil {
		// The debit already committed. The lost credit is logged with its
		// amount so it can be reconciled by hand; there is no retry.
		log.Printf("Coinflip winnings credit of %d for %s failed: %v", winnings, username, err)
	} else if credit.Status != utils.AdjustSuccess {
		log.Printf("Coinflip winnings credit of %d for %s rejected: %s", winnings, username, credit.Message)
	}

	return fmt.Sprintf("🎉 You won! +%d", winnings), nil
}

// interactionUserID returns the acting user's Discord ID for both guild and DM
// interactions.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// respondEphemeral sends an immediate ephemeral reply
func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// deferEphemeral acknowledges the interaction so the handler can take longer
// than Discord's 3-second response deadline.
func deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// editReply fills in a previously deferred reply
func editReply(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &message,
	}); err != nil {
		log.Printf("Failed to edit interaction reply: %v", err)
	}
}
