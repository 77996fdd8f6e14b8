package discord

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"wallflower/internal/engage"
)

// transport is the engage.Transport implementation over the live session.
type transport Bot

const messageCharLimit = 2000

// RecentTranscript fetches the most recent limit messages, oldest first.
func (t *transport) RecentTranscript(channelID string, limit int) ([]engage.TranscriptMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	msgs, err := t.dg.ChannelMessages(channelID, limit, "", "", "")
	if err != nil {
		return nil, err
	}

	// Discord returns newest first.
	out := make([]engage.TranscriptMessage, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Author == nil {
			continue
		}
		out = append(out, engage.TranscriptMessage{
			Author:      m.Author.Username,
			Content:     m.Content,
			Timestamp:   m.Timestamp,
			IsAutomated: m.Author.Bot,
		})
	}
	return out, nil
}

// Send delivers text, split at the platform message-size limit on newline
// boundaries. Returns the ID of the last delivered chunk.
func (t *transport) Send(channelID, text string) (string, error) {
	var lastID string
	for _, chunk := range splitMessage(text, messageCharLimit) {
		msg, err := t.dg.ChannelMessageSend(channelID, chunk)
		if err != nil {
			return "", err
		}
		lastID = msg.ID
		time.Sleep(200 * time.Millisecond)
	}
	return lastID, nil
}

// CanSend checks the bot's own send permission in the channel.
func (t *transport) CanSend(channelID string) bool {
	if t.selfID == "" {
		return false
	}
	perms, err := t.dg.UserChannelPermissions(t.selfID, channelID)
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionSendMessages != 0
}

// Typing fires the best-effort typing indicator.
func (t *transport) Typing(channelID string) error {
	return t.dg.ChannelTyping(channelID)
}

// ChannelName resolves the channel's display name, falling back to its ID.
func (t *transport) ChannelName(channelID string) string {
	ch, err := t.dg.State.Channel(channelID)
	if err != nil || ch == nil || ch.Name == "" {
		return channelID
	}
	return ch.Name
}

// IsThread reports whether the channel is a thread.
func (t *transport) IsThread(channelID string) bool {
	return (*Bot)(t).isThread(channelID)
}

func splitMessage(msg string, limit int) []string {
	var result []string
	for len(msg) > limit {
		cut := strings.LastIndex(msg[:limit], "\n")
		if cut == -1 {
			cut = limit
		}
		result = append(result, strings.TrimSpace(msg[:cut]))
		msg = strings.TrimSpace(msg[cut:])
	}
	if msg != "" {
		result = append(result, msg)
	}
	return result
}
