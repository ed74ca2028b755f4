package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLockoutNotLockedInitially(t *testing.T) {
	tracker := NewLockoutTracker()
	_, locked := tracker.LockedUntil(uuid.New(), uuid.New(), time.Now())
	assert.False(t, locked)
}

func TestLockoutTriggersAtThreshold(t *testing.T) {
	tracker := NewLockoutTracker()
	bonfireID, userID := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	// Four failures: still open.
	for i := 0; i < 4; i++ {
		tracker.RecordFailure(bonfireID, userID, now.Add(time.Duration(i)*time.Second))
	}
	_, locked := tracker.LockedUntil(bonfireID, userID, now.Add(5*time.Second))
	assert.False(t, locked)

	// Fifth failure locks the pair for 15 minutes.
	fifth := now.Add(10 * time.Second)
	tracker.RecordFailure(bonfireID, userID, fifth)
	until, locked := tracker.LockedUntil(bonfireID, userID, fifth.Add(time.Second))
	assert.True(t, locked)
	assert.Equal(t, fifth.Add(15*time.Minute), until)
}

func TestLockoutExpires(t *testing.T) {
	tracker := NewLockoutTracker()
	bonfireID, userID := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure(bonfireID, userID, now)
	}
	_, locked := tracker.LockedUntil(bonfireID, userID, now.Add(14*time.Minute))
	assert.True(t, locked)

	_, locked = tracker.LockedUntil(bonfireID, userID, now.Add(15*time.Minute))
	assert.False(t, locked)
}

func TestLockoutResetClearsCount(t *testing.T) {
	tracker := NewLockoutTracker()
	bonfireID, userID := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		tracker.RecordFailure(bonfireID, userID, now)
	}
	tracker.Reset(bonfireID, userID)

	// Four more failures after the reset must not lock.
	for i := 0; i < 4; i++ {
		tracker.RecordFailure(bonfireID, userID, now.Add(time.Minute))
	}
	_, locked := tracker.LockedUntil(bonfireID, userID, now.Add(2*time.Minute))
	assert.False(t, locked)
}

func TestLockoutRollingIntervalForgetsOldFailures(t *testing.T) {
	tracker := NewLockoutTracker()
	bonfireID, userID := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	// Four failures, then a long quiet period: the counter starts over, so
	// four fresh failures still leave the pair open.
	for i := 0; i < 4; i++ {
		tracker.RecordFailure(bonfireID, userID, now)
	}
	later := now.Add(16 * time.Minute)
	for i := 0; i < 4; i++ {
		tracker.RecordFailure(bonfireID, userID, later)
	}
	_, locked := tracker.LockedUntil(bonfireID, userID, later.Add(time.Second))
	assert.False(t, locked)
}

func TestLockoutPairsAreIndependent(t *testing.T) {
	tracker := NewLockoutTracker()
	bonfireID := uuid.New()
	alice, bob := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure(bonfireID, alice, now)
	}
	_, locked := tracker.LockedUntil(bonfireID, alice, now.Add(time.Second))
	assert.True(t, locked)

	_, locked = tracker.LockedUntil(bonfireID, bob, now.Add(time.Second))
	assert.False(t, locked)
}
