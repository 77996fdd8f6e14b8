package engage

import (
	"context"
	"log"
	"time"
)

// Scheduler is the proactive opportunity source: a fixed-interval ticker
// that re-evaluates every known channel, independent of incoming messages.
// A channel is only considered when at least one privileged participant is
// online in its guild; channels mid-reply are skipped by the advisory lock
// inside the runner.
type Scheduler struct {
	runner   *Runner
	presence *PresenceSet
	interval time.Duration
}

// NewScheduler creates the proactive scheduler.
func NewScheduler(runner *Runner, presence *PresenceSet, interval time.Duration) *Scheduler {
	return &Scheduler{runner: runner, presence: presence, interval: interval}
}

// Run ticks until ctx is done. Call in a goroutine after the transport is up.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Printf("[INFO] Proactive scheduler started, interval %v", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] Proactive scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick scans all known channels once.
func (s *Scheduler) Tick(ctx context.Context) {
	for _, channelID := range s.runner.Store().ChannelIDs() {
		c := s.runner.Store().Channel(channelID)
		guildID := c.Guild()
		if guildID == "" || !s.presence.AnyPrivilegedOnline(guildID) {
			continue
		}
		s.runner.EvaluateProactive(ctx, channelID)
	}
}
