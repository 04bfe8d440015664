package ws

import (
	"testing"
	"time"
)

func TestTypingDebouncerSuppressesRepeats(t *testing.T) {
	d := NewTypingDebouncer(2 * time.Second)
	now := time.Now()
	d.now = func() time.Time { return now }

	if !d.Allow(10, 1) {
		t.Fatalf("expected first signal to pass")
	}
	if d.Allow(10, 1) {
		t.Fatalf("expected repeat within window to be suppressed")
	}

	// other users and channels are tracked independently
	if !d.Allow(10, 2) {
		t.Fatalf("expected signal from another user to pass")
	}
	if !d.Allow(11, 1) {
		t.Fatalf("expected signal in another channel to pass")
	}

	now = now.Add(3 * time.Second)
	if !d.Allow(10, 1) {
		t.Fatalf("expected signal after window to pass")
	}
}

func TestTypingDebouncerEvictsStaleEntries(t *testing.T) {
	d := NewTypingDebouncer(2 * time.Second)
	now := time.Now()
	d.now = func() time.Time { return now }

	for user := 1; user <= 50; user++ {
		d.Allow(10, user)
	}
	if len(d.lastSeen) != 50 {
		t.Fatalf("expected 50 tracked entries, got %d", len(d.lastSeen))
	}

	// everything tracked so far is long expired by the next sweep
	now = now.Add(sweepEvery + time.Second)
	d.Allow(11, 99)

	if len(d.lastSeen) != 1 {
		t.Fatalf("expected sweep to leave only the live entry, got %d", len(d.lastSeen))
	}
	if _, ok := d.lastSeen[typingKey{channelID: 11, userID: 99}]; !ok {
		t.Fatalf("expected the triggering entry to survive the sweep")
	}
}
