package engage

import "time"

// Dormancy is modelled as an explicit three-state machine so the wake
// announcement has a single authoritative edge (Asleep -> Waking) instead of
// two independently computed time deltas that can disagree and double-fire.
// The serialized per-channel decision loop is the only caller of ObserveHuman,
// so the edge is reported exactly once per wake.

// IsSleeping reports whether the channel is dormant at now. The lower bound is
// closed: an elapsed gap of exactly sleepThreshold counts as sleeping. A
// channel with no recorded human activity is sleeping.
func (c *ChannelState) IsSleeping(now time.Time, sleepThreshold time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastHuman.IsZero() || now.Sub(c.lastHuman) >= sleepThreshold
}

// LastHumanActivity returns the stored last-human-activity timestamp.
func (c *ChannelState) LastHumanActivity() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastHuman
}

// ObserveHuman feeds one human event into the dormancy machine and returns
// the state after the transition plus whether this observation is the wake
// edge. The stored timestamp is overwritten unconditionally; out-of-order
// backfill timestamps are accepted as-is and can make a channel look awake
// early (known limitation, not corrected).
func (c *ChannelState) ObserveHuman(ts time.Time, sleepThreshold, wakeAnnounceWindow time.Duration) (SleepState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.stateAtLocked(ts, sleepThreshold, wakeAnnounceWindow)

	woke := false
	switch prev {
	case Asleep:
		c.sleepState = Waking
		c.wokeAt = ts
		woke = true
	case Waking:
		c.sleepState = Waking
	default:
		c.sleepState = Awake
	}

	c.lastHuman = ts
	return c.sleepState, woke
}

// stateAtLocked derives the machine state at now from stored fields.
func (c *ChannelState) stateAtLocked(now time.Time, sleepThreshold, wakeAnnounceWindow time.Duration) SleepState {
	if c.lastHuman.IsZero() || now.Sub(c.lastHuman) >= sleepThreshold {
		return Asleep
	}
	if c.sleepState == Waking && now.Sub(c.wokeAt) < wakeAnnounceWindow {
		return Waking
	}
	return Awake
}

// SleepStateAt reports the machine state at now without mutation.
func (c *ChannelState) SleepStateAt(now time.Time, sleepThreshold, wakeAnnounceWindow time.Duration) SleepState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateAtLocked(now, sleepThreshold, wakeAnnounceWindow)
}
