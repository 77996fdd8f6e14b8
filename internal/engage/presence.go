package engage

import "sync"

// PresenceSet tracks which privileged participants are online per guild.
// Snapshots replace the guild's set wholesale; point-in-time reads may be
// momentarily stale, which only affects a probabilistic proactive opportunity.
type PresenceSet struct {
	mu         sync.RWMutex
	online     map[string]map[string]struct{} // guildID -> set of online privileged users
	privileged map[string]struct{}
}

// NewPresenceSet creates a PresenceSet watching the given privileged user IDs.
func NewPresenceSet(privilegedUsers []string) *PresenceSet {
	priv := make(map[string]struct{}, len(privilegedUsers))
	for _, id := range privilegedUsers {
		if id != "" {
			priv[id] = struct{}{}
		}
	}
	return &PresenceSet{
		online:     make(map[string]map[string]struct{}),
		privileged: priv,
	}
}

// IsPrivileged reports whether userID is on the privileged list.
func (p *PresenceSet) IsPrivileged(userID string) bool {
	_, ok := p.privileged[userID]
	return ok
}

// SetSnapshot replaces the guild's online set from a full presence snapshot.
// Non-privileged users in the snapshot are ignored.
func (p *PresenceSet) SetSnapshot(guildID string, onlineUsers []string) {
	set := make(map[string]struct{})
	for _, id := range onlineUsers {
		if p.IsPrivileged(id) {
			set[id] = struct{}{}
		}
	}
	p.mu.Lock()
	p.online[guildID] = set
	p.mu.Unlock()
}

// Update applies a single presence-change event.
func (p *PresenceSet) Update(guildID, userID string, isOnline bool) {
	if !p.IsPrivileged(userID) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	set := p.online[guildID]
	if set == nil {
		set = make(map[string]struct{})
		p.online[guildID] = set
	}
	if isOnline {
		set[userID] = struct{}{}
	} else {
		delete(set, userID)
	}
}

// AnyPrivilegedOnline reports whether at least one privileged participant is
// currently online in the guild.
func (p *PresenceSet) AnyPrivilegedOnline(guildID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.online[guildID]) > 0
}
