package engage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readyChannel returns a channel that passes every base gate at now.
func readyChannel(t *testing.T, cfg Config) (*ChannelState, time.Time) {
	t.Helper()
	store := NewStore(newFakeClock(testEpoch), 0)
	c := store.Channel("c1")
	now := testEpoch
	c.ObserveHuman(now.Add(-time.Minute), cfg.SleepThreshold, cfg.WakeAnnounceWindow)
	return c, now
}

func TestMuteDominates(t *testing.T) {
	cfg := testConfig()
	p := NewPolicy(cfg, func() float64 { return 0 })
	c, now := readyChannel(t, cfg)

	ok, _ := p.CanConsiderSpeaking(c, time.Time{}, now)
	require.True(t, ok, "sanity: channel passes without mute")

	p.SetMuted(true)
	ok, reason := p.CanConsiderSpeaking(c, time.Time{}, now)
	assert.False(t, ok)
	assert.Equal(t, "muted", reason)

	p.SetMuted(false)
	ok, _ = p.CanConsiderSpeaking(c, time.Time{}, now)
	assert.True(t, ok)
}

func TestAllowListGate(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedChannels = []string{"other"}
	p := NewPolicy(cfg, nil)
	c, now := readyChannel(t, cfg)

	ok, reason := p.CanConsiderSpeaking(c, time.Time{}, now)
	assert.False(t, ok)
	assert.Equal(t, "channel not allowed", reason)

	cfg.AllowedChannels = []string{"other", "c1"}
	p = NewPolicy(cfg, nil)
	ok, _ = p.CanConsiderSpeaking(c, time.Time{}, now)
	assert.True(t, ok)
}

func TestSleepingGate(t *testing.T) {
	cfg := testConfig()
	p := NewPolicy(cfg, nil)
	store := NewStore(newFakeClock(testEpoch), 0)
	c := store.Channel("c1")

	// Exactly threshold + 1ms of silence: sleeping, base eligibility fails
	// no matter how healthy everything else looks.
	c.ObserveHuman(testEpoch, cfg.SleepThreshold, cfg.WakeAnnounceWindow)
	now := testEpoch.Add(cfg.SleepThreshold + time.Millisecond)

	ok, reason := p.CanConsiderSpeaking(c, time.Time{}, now)
	assert.False(t, ok)
	assert.Equal(t, "channel sleeping", reason)
}

func TestReplyCooldownGate(t *testing.T) {
	cfg := testConfig()
	p := NewPolicy(cfg, nil)
	c, now := readyChannel(t, cfg)

	c.SetLastReplyAt(now.Add(-cfg.MinReplyGap / 2))
	ok, reason := p.CanConsiderSpeaking(c, time.Time{}, now)
	assert.False(t, ok)
	assert.Equal(t, "reply cooldown", reason)

	c.SetLastReplyAt(now.Add(-cfg.MinReplyGap))
	ok, _ = p.CanConsiderSpeaking(c, time.Time{}, now)
	assert.True(t, ok)
}

func TestUserGapGate(t *testing.T) {
	cfg := testConfig()
	cfg.MinUserGap = 10 * time.Second
	p := NewPolicy(cfg, nil)
	c, now := readyChannel(t, cfg)

	ok, reason := p.CanConsiderSpeaking(c, now.Add(-5*time.Second), now)
	assert.False(t, ok)
	assert.Equal(t, "user still typing", reason)

	ok, _ = p.CanConsiderSpeaking(c, now.Add(-10*time.Second), now)
	assert.True(t, ok)
}

func TestConversationEligibility(t *testing.T) {
	cfg := testConfig()
	p := NewPolicy(cfg, nil)
	store := NewStore(newFakeClock(testEpoch), 0)

	// Two-person exchange: never eligible for organic speech.
	duo := store.Channel("duo")
	seedMomentum(duo, cfg, []string{"alice", "bob"}, 12, time.Minute, testEpoch)
	ok, reason := p.ConversationEligible(duo, false)
	assert.False(t, ok)
	assert.Equal(t, "too few speakers", reason)

	// Enough speakers but a dead room.
	quiet := store.Channel("quiet")
	seedMomentum(quiet, cfg, []string{"alice", "bob", "carol"}, 4, time.Minute, testEpoch)
	ok, reason = p.ConversationEligible(quiet, false)
	assert.False(t, ok)
	assert.Equal(t, "not enough momentum", reason)

	// 12 messages from 4 people over 20 minutes: live conversation.
	live := store.Channel("live")
	seedMomentum(live, cfg, []string{"a", "b", "c", "d"}, 12, 100*time.Second, testEpoch)
	ok, _ = p.ConversationEligible(live, false)
	assert.True(t, ok)
}

func TestThreadThresholdIsIndependent(t *testing.T) {
	cfg := testConfig()
	cfg.ThreadMinDistinctSpeakers = 2
	cfg.MomentumMinMessages = 4
	cfg.MinDistinctSpeakers = 2
	p := NewPolicy(cfg, nil)
	store := NewStore(newFakeClock(testEpoch), 0)

	c := store.Channel("thread")
	seedMomentum(c, cfg, []string{"alice", "bob"}, 6, time.Minute, testEpoch)

	ok, _ := p.ConversationEligible(c, true)
	assert.True(t, ok, "thread threshold of 2 admits a duo")
}

func TestDirectedAddressDetection(t *testing.T) {
	cfg := testConfig()
	cfg.TriggerKeywords = []string{"wallflower"}
	p := NewPolicy(cfg, nil)
	store := NewStore(newFakeClock(testEpoch), 0)
	c := store.Channel("c1")

	assert.True(t, p.IsDirectedAddress(c, Event{MentionsSelf: true}, testEpoch))
	assert.True(t, p.IsDirectedAddress(c, Event{Content: "hey Wallflower, thoughts?"}, testEpoch))
	assert.False(t, p.IsDirectedAddress(c, Event{Content: "nothing to see"}, testEpoch))

	c.MarkEngaged(testEpoch, "own-1")
	assert.True(t, p.IsDirectedAddress(c, Event{ReferencedMessageID: "own-1"}, testEpoch.Add(time.Hour)),
		"reply-to-self holds beyond the linger window")
	assert.True(t, p.IsDirectedAddress(c, Event{Content: "anything"}, testEpoch.Add(time.Minute)),
		"any message inside the linger window")
	assert.False(t, p.IsDirectedAddress(c, Event{Content: "anything"}, testEpoch.Add(time.Hour)))
}

func TestProbabilityEdges(t *testing.T) {
	cfg := testConfig()

	cfg.ReplyProbability = 0
	p := NewPolicy(cfg, func() float64 { return 0 })
	assert.False(t, p.RollOrganic(), "probability 0 permanently silences organic speech")

	cfg.ReplyProbability = 1.5
	p = NewPolicy(cfg, func() float64 { return 0.999 })
	assert.True(t, p.RollOrganic(), "probability >= 1 always speaks")

	cfg.ReplyProbability = 0.33
	p = NewPolicy(cfg, func() float64 { return 0.32 })
	assert.True(t, p.RollOrganic())
	p = NewPolicy(cfg, func() float64 { return 0.34 })
	assert.False(t, p.RollOrganic())
}

func TestOrganicScenarioThenCooldown(t *testing.T) {
	cfg := testConfig()
	p := NewPolicy(cfg, nil)
	store := NewStore(newFakeClock(testEpoch), 0)

	c := store.Channel("c1")
	seedMomentum(c, cfg, []string{"a", "b", "c", "d"}, 12, 100*time.Second, testEpoch)
	now := testEpoch.Add(10 * time.Second)

	ok, _ := p.CanConsiderSpeaking(c, testEpoch, now)
	require.True(t, ok)
	ok, _ = p.ConversationEligible(c, false)
	require.True(t, ok)

	// Speak now, then re-evaluate before the reply gap has elapsed.
	c.SetLastReplyAt(now)
	ok, reason := p.CanConsiderSpeaking(c, testEpoch, now.Add(cfg.MinReplyGap/2))
	assert.False(t, ok)
	assert.Equal(t, "reply cooldown", reason)
}
