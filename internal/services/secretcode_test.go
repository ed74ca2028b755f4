package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestMasterKey(t *testing.T) {
	t.Helper()
	require.NoError(t, SetMasterKey("test-master-key"))
}

func TestSetMasterKeyRejectsEmpty(t *testing.T) {
	assert.Error(t, SetMasterKey(""))
	assert.Error(t, SetMasterKey("   "))
}

func TestWindowStartPiecewiseConstant(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	// Every instant inside one window maps to the same boundary.
	for _, offset := range []time.Duration{0, time.Second, 2 * time.Minute, 4*time.Minute + 59*time.Second} {
		assert.Equal(t, base, WindowStart(base.Add(offset)), "offset %s", offset)
	}
	assert.Equal(t, base.Add(5*time.Minute), WindowStart(base.Add(5*time.Minute)))
}

func TestWindowStartNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2026, 3, 14, 12, 3, 0, 0, loc)
	utc := time.Date(2026, 3, 14, 10, 3, 0, 0, time.UTC)
	assert.Equal(t, WindowStart(utc), WindowStart(local))
}

func TestDeriveSecretDeterministicWithinWindow(t *testing.T) {
	setTestMasterKey(t)
	bonfireID := uuid.New().String()
	now := time.Date(2026, 3, 14, 10, 1, 30, 0, time.UTC)

	codeA, wsA := CurrentSecret(bonfireID, now)
	codeB, wsB := CurrentSecret(bonfireID, now.Add(3*time.Minute))

	assert.Equal(t, codeA, codeB)
	assert.Equal(t, wsA, wsB)
	assert.Len(t, codeA, SecretCodeLength)
}

func TestDeriveSecretChangesAcrossWindows(t *testing.T) {
	setTestMasterKey(t)
	bonfireID := uuid.New().String()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	current, _ := CurrentSecret(bonfireID, now)
	next, _ := CurrentSecret(bonfireID, now.Add(SecretWindowDuration))
	assert.NotEqual(t, current, next)
}

func TestDeriveSecretDiffersPerBonfire(t *testing.T) {
	setTestMasterKey(t)
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	a, _ := CurrentSecret(uuid.New().String(), now)
	b, _ := CurrentSecret(uuid.New().String(), now)
	assert.NotEqual(t, a, b)
}

func TestValidateSecretAcceptanceWindows(t *testing.T) {
	setTestMasterKey(t)
	bonfireID := uuid.New().String()

	// Code read at 10:00:00 belongs to the [10:00, 10:05) window.
	issued := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	code, _ := CurrentSecret(bonfireID, issued)

	tests := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{"same window", time.Date(2026, 3, 14, 10, 4, 59, 0, time.UTC), true},
		{"following window", time.Date(2026, 3, 14, 10, 7, 0, 0, time.UTC), true},
		{"two windows later", time.Date(2026, 3, 14, 10, 10, 1, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateSecret(bonfireID, code, tt.at))
		})
	}
}

func TestValidateSecretNormalizesInput(t *testing.T) {
	setTestMasterKey(t)
	bonfireID := uuid.New().String()
	now := time.Date(2026, 3, 14, 10, 2, 0, 0, time.UTC)

	code, _ := CurrentSecret(bonfireID, now)
	assert.True(t, ValidateSecret(bonfireID, "  "+code+"\n", now))
	assert.True(t, ValidateSecret(bonfireID, strings.ToLower(code), now))
	assert.False(t, ValidateSecret(bonfireID, "DEADBEEFDEADBEEF", now))
	assert.False(t, ValidateSecret(bonfireID, "", now))
}

func TestValidateSecretWrongBonfire(t *testing.T) {
	setTestMasterKey(t)
	now := time.Date(2026, 3, 14, 10, 2, 0, 0, time.UTC)

	code, _ := CurrentSecret(uuid.New().String(), now)
	assert.False(t, ValidateSecret(uuid.New().String(), code, now))
}
