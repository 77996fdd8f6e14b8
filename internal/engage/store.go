package engage

import (
	"sync"
	"time"
)

// Store holds per-channel decision state. Safe for concurrent use.
// Channels are created implicitly on first touch and, when maxChannels > 0,
// the least-recently-touched channel is evicted to stay under the bound.
type Store struct {
	mu          sync.RWMutex
	channels    map[string]*ChannelState
	clock       Clock
	maxChannels int
}

// NewStore creates a Store. maxChannels = 0 means unbounded.
func NewStore(clock Clock, maxChannels int) *Store {
	if clock == nil {
		clock = SystemClock
	}
	return &Store{
		channels:    make(map[string]*ChannelState),
		clock:       clock,
		maxChannels: maxChannels,
	}
}

// Channel returns state for channelID, creating it if needed.
func (s *Store) Channel(channelID string) *ChannelState {
	s.mu.RLock()
	c := s.channels[channelID]
	s.mu.RUnlock()
	if c != nil {
		c.touch(s.clock.Now())
		return c
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c = s.channels[channelID]; c != nil {
		c.touch(s.clock.Now())
		return c
	}
	if s.maxChannels > 0 && len(s.channels) >= s.maxChannels {
		s.evictOldestLocked()
	}
	c = &ChannelState{ID: channelID, lastTouched: s.clock.Now()}
	s.channels[channelID] = c
	return c
}

// ChannelIDs returns all known channel IDs (for the proactive scan).
func (s *Store) ChannelIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.channels))
	for id := range s.channels {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of tracked channels.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels)
}

func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time
	for id, c := range s.channels {
		at := c.touchedAt()
		if oldestID == "" || at.Before(oldestAt) {
			oldestID, oldestAt = id, at
		}
	}
	if oldestID != "" {
		delete(s.channels, oldestID)
	}
}

// SleepState is the dormancy machine state of a channel.
type SleepState int

const (
	Asleep SleepState = iota
	Waking
	Awake
)

func (s SleepState) String() string {
	switch s {
	case Asleep:
		return "asleep"
	case Waking:
		return "waking"
	default:
		return "awake"
	}
}

type windowEntry struct {
	participantID string
	at            time.Time
}

// ChannelState is everything the engine remembers about one channel.
// Fields are guarded by mu; the advisory send lock lives in ChannelLocks,
// not here, so reads stay cheap for channels mid-reply.
type ChannelState struct {
	ID      string
	GuildID string

	mu          sync.RWMutex
	window      []windowEntry
	lastHuman   time.Time
	sleepState  SleepState
	wokeAt      time.Time
	lastReplyAt time.Time

	lastEngagedAt    time.Time
	lastOwnMessageID string

	lastTouched time.Time
}

// SetGuildID records the owning guild (first event wins, later calls overwrite harmlessly).
func (c *ChannelState) SetGuildID(guildID string) {
	if guildID == "" {
		return
	}
	c.mu.Lock()
	c.GuildID = guildID
	c.mu.Unlock()
}

// Guild returns the owning guild ID, empty until the first event carried one.
func (c *ChannelState) Guild() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.GuildID
}

// LastReplyAt returns when the bot last successfully replied here.
func (c *ChannelState) LastReplyAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastReplyAt
}

// SetLastReplyAt commits the cooldown timestamp after a delivered reply.
func (c *ChannelState) SetLastReplyAt(t time.Time) {
	c.mu.Lock()
	c.lastReplyAt = t
	c.mu.Unlock()
}

func (c *ChannelState) touch(t time.Time) {
	c.mu.Lock()
	c.lastTouched = t
	c.mu.Unlock()
}

func (c *ChannelState) touchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastTouched
}
