package engage

import "time"

// The engagement session is the short-lived "conversation is live with the
// bot" record. It lets the directed-address fast path recognize a human
// continuing an exchange without re-deriving momentum.

// MarkEngaged records a successfully delivered reply. Call exactly once per
// delivered reply, after the transport confirmed the send.
func (c *ChannelState) MarkEngaged(ts time.Time, ownMessageID string) {
	c.mu.Lock()
	c.lastEngagedAt = ts
	c.lastOwnMessageID = ownMessageID
	c.mu.Unlock()
}

// IsLingering reports whether now is still inside the post-reply linger window.
func (c *ChannelState) IsLingering(now time.Time, linger time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.lastEngagedAt.IsZero() && now.Sub(c.lastEngagedAt) < linger
}

// IsReplyToSelf reports whether referencedMessageID points at the bot's own
// last message in this channel.
func (c *ChannelState) IsReplyToSelf(referencedMessageID string) bool {
	if referencedMessageID == "" {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastOwnMessageID != "" && c.lastOwnMessageID == referencedMessageID
}
