package engage

import (
	"context"
	"sync"
	"time"
)

// fakeClock is a hand-driven Clock for deterministic decisions.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

var testEpoch = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

// fakeTransport records sends and serves canned transcripts.
type fakeTransport struct {
	mu            sync.Mutex
	sends         []string
	sendTimes     []time.Time
	sendErr       error
	transcript    []TranscriptMessage
	transcriptErr error
	canSend       bool
	typingCalls   int
	clock         Clock
	thread        bool
}

func newFakeTransport(clock Clock) *fakeTransport {
	return &fakeTransport{canSend: true, clock: clock}
}

func (t *fakeTransport) RecentTranscript(channelID string, limit int) ([]TranscriptMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.transcriptErr != nil {
		return nil, t.transcriptErr
	}
	out := make([]TranscriptMessage, len(t.transcript))
	copy(out, t.transcript)
	return out, nil
}

func (t *fakeTransport) Send(channelID, text string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return "", t.sendErr
	}
	t.sends = append(t.sends, text)
	t.sendTimes = append(t.sendTimes, t.clock.Now())
	return "msg-" + time.Now().Format("150405.000000000"), nil
}

func (t *fakeTransport) CanSend(channelID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canSend
}

func (t *fakeTransport) Typing(channelID string) error {
	t.mu.Lock()
	t.typingCalls++
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) ChannelName(channelID string) string { return "general" }

func (t *fakeTransport) IsThread(channelID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.thread
}

func (t *fakeTransport) sendCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sends)
}

// fakeGenerator counts calls, optionally fails the first failures attempts
// and optionally blocks until released.
type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	failures int
	failErr  error
	reply    string
	block    chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	g.mu.Lock()
	g.calls++
	shouldFail := g.failures > 0
	if shouldFail {
		g.failures--
	}
	block := g.block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if shouldFail {
		return "", g.failErr
	}
	if g.reply == "" {
		return "sure, count me in", nil
	}
	return g.reply, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// testConfig returns a config with tight windows suited to unit tests.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Lookback = 20 * time.Minute
	cfg.SleepThreshold = 2 * time.Hour
	cfg.WakeAnnounceWindow = 5 * time.Minute
	cfg.MinReplyGap = 90 * time.Second
	cfg.MinUserGap = time.Second
	cfg.LingerDuration = 2 * time.Minute
	cfg.MomentumMinMessages = 10
	cfg.MinDistinctSpeakers = 3
	cfg.ThreadMinDistinctSpeakers = 3
	cfg.ReplyProbability = 1
	cfg.ProactiveProbability = 1
	cfg.GenerateTimeout = time.Second
	return cfg
}

// seedMomentum pushes count messages from the given participants round-robin,
// spaced spacing apart, ending at end.
func seedMomentum(c *ChannelState, cfg Config, participants []string, count int, spacing time.Duration, end time.Time) {
	start := end.Add(-spacing * time.Duration(count-1))
	for i := 0; i < count; i++ {
		ts := start.Add(spacing * time.Duration(i))
		c.RecordActivity(participants[i%len(participants)], ts, cfg.Lookback)
		c.ObserveHuman(ts, cfg.SleepThreshold, cfg.WakeAnnounceWindow)
	}
}
