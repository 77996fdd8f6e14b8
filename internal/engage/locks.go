package engage

import "sync"

// ChannelLocks is the per-channel advisory lock that serializes the
// generate-send-bookkeeping sequence. A second attempt while the lock is held
// is dropped, never queued: a delayed decision would be made from a stale
// transcript snapshot anyway.
type ChannelLocks struct {
	mu    sync.Mutex
	locks map[string]*channelLock
}

type channelLock struct {
	busy bool
}

// NewChannelLocks creates an empty lock table.
func NewChannelLocks() *ChannelLocks {
	return &ChannelLocks{locks: make(map[string]*channelLock)}
}

// TryAcquire attempts to take the advisory lock for channelID. Returns false
// if another decision attempt already holds it.
func (l *ChannelLocks) TryAcquire(channelID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cl := l.locks[channelID]
	if cl == nil {
		cl = &channelLock{}
		l.locks[channelID] = cl
	}
	if cl.busy {
		return false
	}
	cl.busy = true
	return true
}

// Release frees the advisory lock. Must be called on every exit path of the
// attempt that acquired it.
func (l *ChannelLocks) Release(channelID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cl := l.locks[channelID]; cl != nil {
		cl.busy = false
	}
}

// Held reports whether the lock is currently taken (status/debugging only).
func (l *ChannelLocks) Held(channelID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cl := l.locks[channelID]
	return cl != nil && cl.busy
}
