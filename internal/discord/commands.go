package discord

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"

	"wallflower/internal/version"
)

// Admin surface: /hush and /speak are the mutually exclusive mute toggles,
// /warmup pokes the generator out-of-band, /status reports the read-only
// snapshot. All but /status require a privileged caller.

var slashDefinitions = []*discordgo.ApplicationCommand{
	{Name: "hush", Description: "Mute the bot everywhere"},
	{Name: "speak", Description: "Unmute the bot"},
	{Name: "warmup", Description: "Warm up the reply generator"},
	{Name: "status", Description: "Show uptime, mute state and thresholds"},
}

func (b *Bot) registerCommands(guildID string) error {
	for _, def := range slashDefinitions {
		if _, err := b.dg.ApplicationCommandCreate(b.dg.State.User.ID, guildID, def); err != nil {
			return fmt.Errorf("register /%s: %w", def.Name, err)
		}
	}
	return nil
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name

	switch name {
	case "hush", "speak", "warmup":
		if !b.isPrivileged(s, i) {
			respondEphemeral(s, i, "You are not allowed to run this command.")
			return
		}
	case "status":
	default:
		log.Printf("[WARN] Unknown command: %s", name)
		return
	}

	switch name {
	case "hush":
		b.runner.Policy().SetMuted(true)
		log.Printf("[INFO] Muted by %s", interactionUserID(i))
		respondEphemeral(s, i, "Muted. I will stay quiet until /speak.")
	case "speak":
		b.runner.Policy().SetMuted(false)
		log.Printf("[INFO] Unmuted by %s", interactionUserID(i))
		respondEphemeral(s, i, "Unmuted. Back to normal gating.")
	case "warmup":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := b.warmer.WarmUp(ctx); err != nil {
			log.Printf("[ERR] Warm-up failed: %v", err)
			respondEphemeral(s, i, fmt.Sprintf("Warm-up failed: %v", err))
			return
		}
		respondEphemeral(s, i, "Generator is warm.")
	case "status":
		respondEphemeral(s, i, b.statusText())
	}
}

func (b *Bot) statusText() string {
	return fmt.Sprintf(
		"%s %s\nuptime: %v\nmuted: %v\ntracked channels: %d\nreply gap: %v, user gap: %v, sleep threshold: %v\nmomentum: %d msgs / %d speakers over %v",
		version.AppName, version.Version,
		version.Uptime(),
		b.runner.Policy().Muted(),
		b.runner.Store().Len(),
		b.cfg.MinReplyGap, b.cfg.MinUserGap, b.cfg.SleepThreshold,
		b.cfg.MomentumMinMessages, b.cfg.MinDistinctSpeakers, b.cfg.Lookback,
	)
}

// isPrivileged allows users on the configured list, plus guild administrators.
func (b *Bot) isPrivileged(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	userID := interactionUserID(i)
	if userID != "" && slices.Contains(b.cfg.PrivilegedUsers, userID) {
		return true
	}
	if i.Member == nil || userID == "" {
		return false
	}
	perms, err := s.UserChannelPermissions(userID, i.ChannelID)
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("[ERR] Failed to respond to interaction: %v", err)
	}
}
