package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PIN lockout: 5 consecutive failures within the rolling interval lock the
// (bonfire, user) pair for 15 minutes. Kept in process memory, mutex-guarded,
// so the increment-and-compare is atomic and two racing attempts cannot both
// slip under the threshold.

const (
	pinFailureThreshold  = 5
	pinLockoutDuration   = 15 * time.Minute
	lockoutSweepInterval = 5 * time.Minute
	lockoutEntryTTL      = 30 * time.Minute
)

type lockoutEntry struct {
	failures    int
	firstFailed time.Time
	lockedUntil time.Time
	lastUse     time.Time
}

// LockoutTracker holds PIN failure state per (bonfire, user) pair.
type LockoutTracker struct {
	mu           sync.Mutex
	entries      map[string]*lockoutEntry
	sweepStarted bool
}

func NewLockoutTracker() *LockoutTracker {
	return &LockoutTracker{entries: make(map[string]*lockoutEntry)}
}

func lockoutKey(bonfireID, userID uuid.UUID) string {
	return bonfireID.String() + ":" + userID.String()
}

// LockedUntil reports whether the pair is currently locked out and until when.
func (t *LockoutTracker) LockedUntil(bonfireID, userID uuid.UUID, now time.Time) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[lockoutKey(bonfireID, userID)]
	if !ok {
		return time.Time{}, false
	}
	e.lastUse = now
	if now.Before(e.lockedUntil) {
		return e.lockedUntil, true
	}
	return time.Time{}, false
}

// RecordFailure counts one wrong PIN. Reaching the threshold transitions the
// pair to locked; the triggering attempt itself still fails as InvalidPin,
// only subsequent attempts see RateLimited.
func (t *LockoutTracker) RecordFailure(bonfireID, userID uuid.UUID, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startSweepLocked()

	key := lockoutKey(bonfireID, userID)
	e, ok := t.entries[key]
	if !ok || now.Sub(e.firstFailed) > pinLockoutDuration {
		// New pair, or the rolling interval elapsed: start counting afresh.
		e = &lockoutEntry{firstFailed: now}
		t.entries[key] = e
	}
	e.failures++
	e.lastUse = now
	if e.failures >= pinFailureThreshold {
		e.lockedUntil = now.Add(pinLockoutDuration)
		e.failures = 0
		e.firstFailed = time.Time{}
	}
}

// Reset clears the failure count after a correct PIN.
func (t *LockoutTracker) Reset(bonfireID, userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, lockoutKey(bonfireID, userID))
}

// startSweepLocked launches the stale-entry sweeper once. Caller holds mu.
func (t *LockoutTracker) startSweepLocked() {
	if t.sweepStarted {
		return
	}
	t.sweepStarted = true
	go func() {
		ticker := time.NewTicker(lockoutSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			t.mu.Lock()
			now := time.Now()
			for k, e := range t.entries {
				if now.Sub(e.lastUse) > lockoutEntryTTL && !now.Before(e.lockedUntil) {
					delete(t.entries, k)
				}
			}
			t.mu.Unlock()
		}
	}()
}
