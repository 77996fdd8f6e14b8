package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"wallflower/internal/engage"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

// Config is the full process configuration, parsed from the environment.
// A missing required credential is fatal at startup.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`

	GenEndpoint       string        `env:"GEN_ENDPOINT" envDefault:"https://text.pollinations.ai/openai"`
	GenModel          string        `env:"GEN_MODEL" envDefault:"openai"`
	GenTimeout        time.Duration `env:"GEN_TIMEOUT" envDefault:"25s"`
	GenCallsPerMinute int           `env:"GEN_CALLS_PER_MINUTE" envDefault:"6"`
	GenKeepAlive      time.Duration `env:"GEN_KEEPALIVE_INTERVAL" envDefault:"10m"`

	StatusAddr string `env:"STATUS_ADDR" envDefault:":8787"`

	PrivilegedUsers []string `env:"PRIVILEGED_USERS" envSeparator:","`
	AllowedChannels []string `env:"ALLOWED_CHANNELS" envSeparator:","`
	TriggerKeywords []string `env:"TRIGGER_KEYWORDS" envSeparator:","`

	Lookback           time.Duration `env:"ACTIVITY_LOOKBACK" envDefault:"20m"`
	SleepThreshold     time.Duration `env:"SLEEP_THRESHOLD" envDefault:"2h"`
	WakeAnnounceWindow time.Duration `env:"WAKE_ANNOUNCE_WINDOW" envDefault:"5m"`
	MinReplyGap        time.Duration `env:"MIN_REPLY_GAP" envDefault:"90s"`
	MinUserGap         time.Duration `env:"MIN_USER_GAP" envDefault:"8s"`
	LingerDuration     time.Duration `env:"ENGAGEMENT_LINGER" envDefault:"2m"`

	MomentumMinMessages       int `env:"MOMENTUM_MIN_MSGS" envDefault:"10"`
	MinDistinctSpeakers       int `env:"MIN_DISTINCT_SPEAKERS" envDefault:"3"`
	ThreadMinDistinctSpeakers int `env:"THREAD_MIN_DISTINCT_SPEAKERS" envDefault:"3"`

	ReplyProbability     float64       `env:"REPLY_PROBABILITY" envDefault:"0.33"`
	ProactiveProbability float64       `env:"PROACTIVE_PROBABILITY" envDefault:"0.05"`
	ProactiveInterval    time.Duration `env:"PROACTIVE_INTERVAL" envDefault:"90s"`

	TranscriptLimit int `env:"TRANSCRIPT_LIMIT" envDefault:"40"`
	MessageCharCap  int `env:"MESSAGE_CHAR_CAP" envDefault:"500"`
	MaxChannels     int `env:"MAX_TRACKED_CHANNELS" envDefault:"0"`

	WakeLine     string `env:"WAKE_LINE"`
	FallbackLine string `env:"FALLBACK_LINE"`
}

// New parses the environment. Returns an error only for configuration
// problems; callers treat that as fatal.
func New() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Engage maps the process config onto the decision-engine config.
func (c *Config) Engage() engage.Config {
	return engage.Config{
		Lookback:                  c.Lookback,
		SleepThreshold:            c.SleepThreshold,
		WakeAnnounceWindow:        c.WakeAnnounceWindow,
		MinReplyGap:               c.MinReplyGap,
		MinUserGap:                c.MinUserGap,
		LingerDuration:            c.LingerDuration,
		MomentumMinMessages:       c.MomentumMinMessages,
		MinDistinctSpeakers:       c.MinDistinctSpeakers,
		ThreadMinDistinctSpeakers: c.ThreadMinDistinctSpeakers,
		ReplyProbability:          c.ReplyProbability,
		ProactiveProbability:      c.ProactiveProbability,
		ProactiveInterval:         c.ProactiveInterval,
		TranscriptLimit:           c.TranscriptLimit,
		MessageCharCap:            c.MessageCharCap,
		GenerateTimeout:           c.GenTimeout,
		TriggerKeywords:           c.TriggerKeywords,
		AllowedChannels:           c.AllowedChannels,
		MaxChannels:               c.MaxChannels,
		WakeLine:                  c.WakeLine,
		FallbackLine:              c.FallbackLine,
	}
}
