package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"wallflower/internal/config"
	"wallflower/internal/engage"
)

// Bot connects the decision engine to Discord: it feeds activity events and
// presence updates in, and implements engage.Transport for replies going out.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	runner   *engage.Runner
	presence *engage.PresenceSet
	warmer   Warmer
	selfID   string
}

// Warmer triggers an out-of-band warm-up of the reply generator (the /warmup
// admin command).
type Warmer interface {
	WarmUp(ctx context.Context) error
}

// NewBot creates the Discord adapter. The runner is attached afterwards with
// SetRunner, since the runner itself needs this bot's Transport. Call Run to
// connect.
func NewBot(cfg *config.Config, runner *engage.Runner, presence *engage.PresenceSet, warmer Warmer) *Bot {
	return &Bot{cfg: cfg, runner: runner, presence: presence, warmer: warmer}
}

// SetRunner attaches the decision engine. Must happen before Run.
func (b *Bot) SetRunner(runner *engage.Runner) { b.runner = runner }

// Run opens the gateway session and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildPresences |
		discordgo.IntentMessageContent

	dg.AddHandler(b.onReady)
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) { b.onMessageCreate(ctx, s, m) })
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onPresenceUpdate)
	dg.AddHandler(b.onInteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Println("[INFO] Shutdown signal received. Closing Discord session...")
	return nil
}

// Transport returns the engage.Transport view of this bot. Valid after Run
// has opened the session.
func (b *Bot) Transport() engage.Transport {
	return (*transport)(b)
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.selfID = r.User.ID

	for _, g := range r.Guilds {
		if err := b.registerCommands(g.ID); err != nil {
			log.Printf("[ERR] Failed to register commands for guild %s: %v", g.ID, err)
		}
	}

	log.Printf("[INFO] ✅ %s is running in %d guild(s).", r.User.Username, len(r.Guilds))
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[INFO] Joined guild: %s (%s)", g.Guild.ID, g.Guild.Name)

	// Full presence snapshot for the guild, replacing whatever we had.
	online := make([]string, 0, len(g.Presences))
	for _, p := range g.Presences {
		if p.User != nil && p.Status != discordgo.StatusOffline {
			online = append(online, p.User.ID)
		}
	}
	b.presence.SetSnapshot(g.Guild.ID, online)

	if err := b.registerCommands(g.Guild.ID); err != nil {
		log.Printf("[ERR] Failed to register commands for new guild %s: %v", g.Guild.ID, err)
	}
}

func (b *Bot) onPresenceUpdate(s *discordgo.Session, p *discordgo.PresenceUpdate) {
	if p.User == nil {
		return
	}
	b.presence.Update(p.GuildID, p.User.ID, p.Status != discordgo.StatusOffline)
}

func (b *Bot) onMessageCreate(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	mentioned := false
	for _, user := range m.Mentions {
		if user.ID == s.State.User.ID {
			mentioned = true
			break
		}
	}

	referenced := ""
	if m.MessageReference != nil {
		referenced = m.MessageReference.MessageID
	}

	ev := engage.Event{
		ChannelID:           m.ChannelID,
		GuildID:             m.GuildID,
		ParticipantID:       m.Author.ID,
		Content:             m.Content,
		Timestamp:           m.Timestamp,
		IsAutomated:         m.Author.Bot,
		MentionsSelf:        mentioned,
		ReferencedMessageID: referenced,
		IsThread:            b.isThread(m.ChannelID),
	}

	// Decision paths for different channels are independent; the per-channel
	// advisory lock serializes the rest.
	go b.runner.HandleEvent(ctx, ev)
}

func (b *Bot) isThread(channelID string) bool {
	ch, err := b.dg.State.Channel(channelID)
	if err != nil || ch == nil {
		return false
	}
	return ch.IsThread()
}
