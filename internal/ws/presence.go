package ws

import (
	"sync"
	"time"
)

// DefaultTypingWindow suppresses repeated typing signals from the same user
// in the same channel within this interval.
const DefaultTypingWindow = 2 * time.Second

// sweepEvery bounds how often expired entries are cleared out of lastSeen.
const sweepEvery = time.Minute

type typingKey struct {
	channelID int
	userID    int
}

// TypingDebouncer gates ephemeral typing signals. Dropped signals are
// inconsequential; there is no queueing or retry.
type TypingDebouncer struct {
	mu        sync.Mutex
	window    time.Duration
	lastSeen  map[typingKey]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewTypingDebouncer creates a debouncer with the given suppression window.
func NewTypingDebouncer(window time.Duration) *TypingDebouncer {
	return &TypingDebouncer{
		window:   window,
		lastSeen: make(map[typingKey]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether a typing signal for (channel, user) should be
// emitted, recording the emission time when it is.
func (d *TypingDebouncer) Allow(channelID, userID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := typingKey{channelID: channelID, userID: userID}
	now := d.now()
	d.sweep(now)
	if last, ok := d.lastSeen[key]; ok && now.Sub(last) < d.window {
		return false
	}
	d.lastSeen[key] = now
	return true
}

// sweep drops entries past the suppression window so the map stays bounded
// by recently active (channel, user) pairs. Caller holds the mutex.
func (d *TypingDebouncer) sweep(now time.Time) {
	if now.Sub(d.lastSweep) < sweepEvery {
		return
	}
	d.lastSweep = now
	for key, last := range d.lastSeen {
		if now.Sub(last) >= d.window {
			delete(d.lastSeen, key)
		}
	}
}
