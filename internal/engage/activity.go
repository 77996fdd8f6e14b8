package engage

import "time"

// RecordActivity appends one event to the channel's sliding window and prunes
// entries older than lookback relative to the new event's timestamp. The
// resulting window is returned (oldest first). Pruning is lazy: it happens on
// write only, so Stats may briefly count stale entries between writes.
func (c *ChannelState) RecordActivity(participantID string, ts time.Time, lookback time.Duration) []windowEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.window = append(c.window, windowEntry{participantID: participantID, at: ts})

	cutoff := ts.Add(-lookback)
	keep := 0
	for keep < len(c.window) && !c.window[keep].at.After(cutoff) {
		keep++
	}
	if keep > 0 {
		c.window = append(c.window[:0], c.window[keep:]...)
	}

	out := make([]windowEntry, len(c.window))
	copy(out, c.window)
	return out
}

// Stats derives momentum from the last-pruned window without mutating it.
func (c *ChannelState) Stats() MomentumStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(c.window))
	for _, e := range c.window {
		seen[e.participantID] = struct{}{}
	}
	return MomentumStats{
		Count:                len(c.window),
		DistinctParticipants: len(seen),
	}
}
