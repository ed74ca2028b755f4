package services

import (
	"testing"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func sampleAt(lat, lng float64, at time.Time) models.LocationSample {
	return models.LocationSample{Latitude: lat, Longitude: lng, Timestamp: at}
}

func TestSamplerFirstSampleAlwaysAccepted(t *testing.T) {
	s := NewLocationSampler(20, 30*time.Second)
	assert.True(t, s.Accept(uuid.New(), sampleAt(52.5200, 13.4050, time.Now())))
}

func TestSamplerRejectsSmallMoveWithinInterval(t *testing.T) {
	s := NewLocationSampler(20, 30*time.Second)
	userID := uuid.New()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	assert.True(t, s.Accept(userID, sampleAt(52.5200, 13.4050, base)))

	// ~1e-5 degrees latitude is about a metre; well under the 20 m gate.
	assert.False(t, s.Accept(userID, sampleAt(52.52001, 13.4050, base.Add(5*time.Second))))
}

func TestSamplerAcceptsLargeMove(t *testing.T) {
	s := NewLocationSampler(20, 30*time.Second)
	userID := uuid.New()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	assert.True(t, s.Accept(userID, sampleAt(52.5200, 13.4050, base)))

	// ~0.0005 degrees latitude is roughly 55 m.
	assert.True(t, s.Accept(userID, sampleAt(52.5205, 13.4050, base.Add(time.Second))))
}

func TestSamplerAcceptsAfterMaxInterval(t *testing.T) {
	s := NewLocationSampler(20, 30*time.Second)
	userID := uuid.New()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	assert.True(t, s.Accept(userID, sampleAt(52.5200, 13.4050, base)))

	// Stationary, but the interval elapsed.
	assert.True(t, s.Accept(userID, sampleAt(52.5200, 13.4050, base.Add(30*time.Second))))
}

func TestSamplerDebounceIsPerAcceptedSample(t *testing.T) {
	s := NewLocationSampler(20, 30*time.Second)
	userID := uuid.New()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	assert.True(t, s.Accept(userID, sampleAt(52.5200, 13.4050, base)))

	// Rejected samples do not advance the reference point: creeping a metre
	// at a time never opens the gate early.
	for i := 1; i <= 5; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		assert.False(t, s.Accept(userID, sampleAt(52.5200+float64(i)*0.00001, 13.4050, at)))
	}
}

func TestSamplerReset(t *testing.T) {
	s := NewLocationSampler(20, 30*time.Second)
	userID := uuid.New()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	assert.True(t, s.Accept(userID, sampleAt(52.5200, 13.4050, base)))
	s.Reset(userID)
	assert.True(t, s.Accept(userID, sampleAt(52.5200, 13.4050, base.Add(time.Second))))
}

func TestNotifierFirstSightingOnce(t *testing.T) {
	n := NewDiscoveryNotifier()
	userID, bonfireID := uuid.New(), uuid.New()

	assert.True(t, n.FirstSighting(userID, bonfireID))
	for i := 0; i < 3; i++ {
		assert.False(t, n.FirstSighting(userID, bonfireID))
	}
}

func TestNotifierIndependentPerUserAndBonfire(t *testing.T) {
	n := NewDiscoveryNotifier()
	alice, bob := uuid.New(), uuid.New()
	fire1, fire2 := uuid.New(), uuid.New()

	assert.True(t, n.FirstSighting(alice, fire1))
	assert.True(t, n.FirstSighting(alice, fire2))
	assert.True(t, n.FirstSighting(bob, fire1))
	assert.False(t, n.FirstSighting(alice, fire1))
}

func TestNotifierReset(t *testing.T) {
	n := NewDiscoveryNotifier()
	userID, bonfireID := uuid.New(), uuid.New()

	assert.True(t, n.FirstSighting(userID, bonfireID))
	n.Reset(userID)
	assert.True(t, n.FirstSighting(userID, bonfireID))
}
