package engage

import (
	"math/rand"
	"slices"
	"strings"
	"sync/atomic"
	"time"
)

// Policy combines dormancy, momentum, cooldown and the allow-list into the
// speak/no-speak decision. Two paths share the base gates: organic (ambient)
// speech additionally needs conversation eligibility plus a probability roll,
// directed-address speech needs neither.
type Policy struct {
	cfg   Config
	muted atomic.Bool
	roll  func() float64
}

// NewPolicy creates a Policy. roll may be nil, in which case the global
// math/rand source is used (tests inject a fixed roll).
func NewPolicy(cfg Config, roll func() float64) *Policy {
	if roll == nil {
		roll = rand.Float64
	}
	return &Policy{cfg: cfg, roll: roll}
}

// SetMuted flips the global mute flag. Mute dominates every other gate.
func (p *Policy) SetMuted(muted bool) { p.muted.Store(muted) }

// Muted returns the current mute flag.
func (p *Policy) Muted() bool { return p.muted.Load() }

// CanConsiderSpeaking is the base eligibility check shared by every path.
// Five independent AND-gates, evaluated in order with no side effects; the
// returned reason names the first failing gate for the decision log.
// lastHumanTs is the timestamp of the last human message the caller knows
// about (for the event path, the message before the triggering one).
func (p *Policy) CanConsiderSpeaking(c *ChannelState, lastHumanTs, now time.Time) (bool, string) {
	if p.muted.Load() {
		return false, "muted"
	}
	if len(p.cfg.AllowedChannels) > 0 && !slices.Contains(p.cfg.AllowedChannels, c.ID) {
		return false, "channel not allowed"
	}
	if c.IsSleeping(now, p.cfg.SleepThreshold) {
		return false, "channel sleeping"
	}
	if last := c.LastReplyAt(); !last.IsZero() && now.Sub(last) < p.cfg.MinReplyGap {
		return false, "reply cooldown"
	}
	if !lastHumanTs.IsZero() && now.Sub(lastHumanTs) < p.cfg.MinUserGap {
		return false, "user still typing"
	}
	return true, ""
}

// ConversationEligible gates organic speech only: the bot should not barge
// into a two-person exchange and should not speak into a dead room.
func (p *Policy) ConversationEligible(c *ChannelState, isThread bool) (bool, string) {
	stats := c.Stats()

	minSpeakers := p.cfg.MinDistinctSpeakers
	if isThread {
		minSpeakers = p.cfg.ThreadMinDistinctSpeakers
	}
	if stats.DistinctParticipants < minSpeakers {
		return false, "too few speakers"
	}
	if stats.Count < p.cfg.MomentumMinMessages || stats.DistinctParticipants < p.cfg.MinDistinctSpeakers {
		return false, "not enough momentum"
	}
	return true, ""
}

// IsDirectedAddress reports whether ev is aimed at the bot: an explicit
// mention, a trigger keyword, a reply to the bot's own last message, or any
// message inside the post-reply linger window.
func (p *Policy) IsDirectedAddress(c *ChannelState, ev Event, now time.Time) bool {
	if ev.MentionsSelf {
		return true
	}
	content := strings.ToLower(ev.Content)
	for _, kw := range p.cfg.TriggerKeywords {
		if kw != "" && strings.Contains(content, strings.ToLower(kw)) {
			return true
		}
	}
	if c.IsReplyToSelf(ev.ReferencedMessageID) {
		return true
	}
	return c.IsLingering(now, p.cfg.LingerDuration)
}

// RollOrganic samples the organic reply probability. Probability 0 silences
// organic speech permanently, >= 1 always speaks when eligible.
func (p *Policy) RollOrganic() bool {
	return p.rollAgainst(p.cfg.ReplyProbability)
}

// RollProactive samples the (typically lower) proactive probability.
func (p *Policy) RollProactive() bool {
	return p.rollAgainst(p.cfg.ProactiveProbability)
}

func (p *Policy) rollAgainst(prob float64) bool {
	if prob <= 0 {
		return false
	}
	if prob >= 1 {
		return true
	}
	return p.roll() < prob
}
