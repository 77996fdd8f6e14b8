package engage

import "time"

// Event is one human-authored message as seen by the transport.
type Event struct {
	ChannelID           string
	GuildID             string
	ParticipantID       string
	Content             string
	Timestamp           time.Time
	IsAutomated         bool
	MentionsSelf        bool
	ReferencedMessageID string
	IsThread            bool
}

// MomentumStats describes recent-activity intensity inside the lookback window.
type MomentumStats struct {
	Count                int
	DistinctParticipants int
}

// TranscriptMessage is one line of channel history handed to the generator.
type TranscriptMessage struct {
	Author      string
	Content     string
	Timestamp   time.Time
	IsAutomated bool
}

// GenerateRequest is what the reply generator receives for one opportunity.
type GenerateRequest struct {
	ChannelName string
	Transcript  []TranscriptMessage
	Momentum    MomentumStats
}

// Clock abstracts time.Now so tests can drive decisions deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock used outside of tests.
var SystemClock Clock = systemClock{}

// Config holds every tunable of the decision engine.
type Config struct {
	Lookback           time.Duration
	SleepThreshold     time.Duration
	WakeAnnounceWindow time.Duration
	MinReplyGap        time.Duration
	MinUserGap         time.Duration
	LingerDuration     time.Duration

	MomentumMinMessages       int
	MinDistinctSpeakers       int
	ThreadMinDistinctSpeakers int

	ReplyProbability     float64
	ProactiveProbability float64
	ProactiveInterval    time.Duration

	TranscriptLimit int
	MessageCharCap  int
	GenerateTimeout time.Duration

	TriggerKeywords []string
	AllowedChannels []string
	MaxChannels     int

	WakeLine     string
	FallbackLine string
}

// DefaultConfig returns the thresholds the bot ships with.
func DefaultConfig() Config {
	return Config{
		Lookback:                  20 * time.Minute,
		SleepThreshold:            2 * time.Hour,
		WakeAnnounceWindow:        5 * time.Minute,
		MinReplyGap:               90 * time.Second,
		MinUserGap:                8 * time.Second,
		LingerDuration:            2 * time.Minute,
		MomentumMinMessages:       10,
		MinDistinctSpeakers:       3,
		ThreadMinDistinctSpeakers: 3,
		ReplyProbability:          0.33,
		ProactiveProbability:      0.05,
		ProactiveInterval:         90 * time.Second,
		TranscriptLimit:           40,
		MessageCharCap:            500,
		GenerateTimeout:           25 * time.Second,
	}
}
