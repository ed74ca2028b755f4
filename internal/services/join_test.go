package services

import (
	"context"
	"testing"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/models"
	"github.com/bonfireapp/bonfire-backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJoinStore struct {
	bonfires map[uuid.UUID]*models.Bonfire
	upserts  int
}

func newFakeJoinStore() *fakeJoinStore {
	return &fakeJoinStore{bonfires: make(map[uuid.UUID]*models.Bonfire)}
}

func (f *fakeJoinStore) GetBonfire(_ context.Context, id uuid.UUID) (*models.Bonfire, error) {
	b, ok := f.bonfires[id]
	if !ok {
		return nil, ErrBonfireNotFound
	}
	return b, nil
}

func (f *fakeJoinStore) UpsertParticipant(_ context.Context, _, _ uuid.UUID) error {
	f.upserts++
	return nil
}

func testBonfire(t *testing.T, now time.Time, pin string) *models.Bonfire {
	t.Helper()
	b := &models.Bonfire{
		ID:                    uuid.New(),
		CreatorID:             uuid.New(),
		Name:                  "campfire by the lake",
		Latitude:              52.5200,
		Longitude:             13.4050,
		ProximityRadiusMeters: 50,
		ExpiresAt:             now.Add(4 * time.Hour),
		IsActive:              true,
		CreatedAt:             now,
	}
	if pin != "" {
		hash, err := utils.HashPin(pin)
		require.NoError(t, err)
		b.HasPin = true
		b.PinHash = hash
	}
	return b
}

func TestValidateJoinSuccessWithoutPin(t *testing.T) {
	setTestMasterKey(t)
	now := time.Date(2026, 3, 14, 10, 2, 0, 0, time.UTC)
	store := newFakeJoinStore()
	bonfire := testBonfire(t, now, "")
	store.bonfires[bonfire.ID] = bonfire
	v := NewJoinValidator(store)

	code, _ := CurrentSecret(bonfire.ID.String(), now)
	err := v.ValidateJoin(context.Background(), bonfire.ID, uuid.New(), code, "", now)
	require.NoError(t, err)
	assert.Equal(t, 1, store.upserts)
}

func TestValidateJoinIdempotent(t *testing.T) {
	setTestMasterKey(t)
	now := time.Date(2026, 3, 14, 10, 2, 0, 0, time.UTC)
	store := newFakeJoinStore()
	bonfire := testBonfire(t, now, "")
	store.bonfires[bonfire.ID] = bonfire
	v := NewJoinValidator(store)
	userID := uuid.New()

	code, _ := CurrentSecret(bonfire.ID.String(), now)
	require.NoError(t, v.ValidateJoin(context.Background(), bonfire.ID, userID, code, "", now))
	require.NoError(t, v.ValidateJoin(context.Background(), bonfire.ID, userID, code, "", now))
}

func TestValidateJoinUnknownBonfire(t *testing.T) {
	setTestMasterKey(t)
	v := NewJoinValidator(newFakeJoinStore())
	err := v.ValidateJoin(context.Background(), uuid.New(), uuid.New(), "ABCDEF0123456789", "", time.Now())
	assert.ErrorIs(t, err, ErrBonfireNotFound)
}

func TestValidateJoinExpiredBonfire(t *testing.T) {
	setTestMasterKey(t)
	now := time.Date(2026, 3, 14, 10, 2, 0, 0, time.UTC)
	store := newFakeJoinStore()
	bonfire := testBonfire(t, now, "")
	bonfire.ExpiresAt = now.Add(-time.Minute)
	store.bonfires[bonfire.ID] = bonfire
	v := NewJoinValidator(store)

	code, _ := CurrentSecret(bonfire.ID.String(), now)
	err := v.ValidateJoin(context.Background(), bonfire.ID, uuid.New(), code, "", now)
	assert.ErrorIs(t, err, ErrBonfireNotFound)
	assert.Zero(t, store.upserts)
}

func TestValidateJoinEndedBonfire(t *testing.T) {
	setTestMasterKey(t)
	now := time.Date(2026, 3, 14, 10, 2, 0, 0, time.UTC)
	store := newFakeJoinStore()
	bonfire := testBonfire(t, now, "")
	bonfire.IsActive = false
	store.bonfires[bonfire.ID] = bonfire
	v := NewJoinValidator(store)

	code, _ := CurrentSecret(bonfire.ID.String(), now)
	err := v.ValidateJoin(context.Background(), bonfire.ID, uuid.New(), code, "", now)
	assert.ErrorIs(t, err, ErrBonfireNotFound)
}

func TestValidateJoinWrongSecret(t *testing.T) {
	setTestMasterKey(t)
	now := time.Date(2026, 3, 14, 10, 2, 0, 0, time.UTC)
	store := newFakeJoinStore()
	bonfire := testBonfire(t, now, "")
	store.bonfires[bonfire.ID] = bonfire
	v := NewJoinValidator(store)

	err := v.ValidateJoin(context.Background(), bonfire.ID, uuid.New(), "0000000000000000", "", now)
	assert.ErrorIs(t, err, ErrInvalidSecret)
	assert.Zero(t, store.upserts)
}

func TestValidateJoinStaleSecretAcceptedOneWindow(t *testing.T) {
	setTestMasterKey(t)
	issued := time.Date(2026, 3, 14, 10, 4, 0, 0, time.UTC)
	store := newFakeJoinStore()
	bonfire := testBonfire(t, issued, "")
	store.bonfires[bonfire.ID] = bonfire
	v := NewJoinValidator(store)

	code, _ := CurrentSecret(bonfire.ID.String(), issued)

	// One window later the code still works; two windows later it does not.
	err := v.ValidateJoin(context.Background(), bonfire.ID, uuid.New(), code, "", issued.Add(SecretWindowDuration))
	assert.NoError(t, err)
	err = v.ValidateJoin(context.Background(), bonfire.ID, uuid.New(), code, "", issued.Add(2*SecretWindowDuration))
	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestValidateJoinPinFlow(t *testing.T) {
	setTestMasterKey(t)
	now := time.Date(2026, 3, 14, 10, 2, 0, 0, time.UTC)
	store := newFakeJoinStore()
	bonfire := testBonfire(t, now, "4321")
	store.bonfires[bonfire.ID] = bonfire
	v := NewJoinValidator(store)
	userID := uuid.New()
	code, _ := CurrentSecret(bonfire.ID.String(), now)

	// Missing PIN fails.
	err := v.ValidateJoin(context.Background(), bonfire.ID, userID, code, "", now)
	assert.ErrorIs(t, err, ErrInvalidPin)

	// Correct PIN succeeds and clears the failure above.
	err = v.ValidateJoin(context.Background(), bonfire.ID, userID, code, "4321", now)
	require.NoError(t, err)
	assert.Equal(t, 1, store.upserts)
}

func TestValidateJoinPinLockoutSequence(t *testing.T) {
	setTestMasterKey(t)
	now := time.Date(2026, 3, 14, 10, 2, 0, 0, time.UTC)
	store := newFakeJoinStore()
	bonfire := testBonfire(t, now, "4321")
	store.bonfires[bonfire.ID] = bonfire
	v := NewJoinValidator(store)
	userID := uuid.New()
	code, _ := CurrentSecret(bonfire.ID.String(), now)

	// Attempts 1 through 5 with a wrong PIN fail as InvalidPin; the fifth
	// transitions the pair to locked.
	for i := 0; i < 5; i++ {
		at := now.Add(time.Duration(i) * time.Second)
		err := v.ValidateJoin(context.Background(), bonfire.ID, userID, code, "9999", at)
		assert.ErrorIs(t, err, ErrInvalidPin, "attempt %d", i+1)
	}

	// Sixth attempt is rejected before any check, even with the correct PIN.
	var rateLimited *RateLimitedError
	err := v.ValidateJoin(context.Background(), bonfire.ID, userID, code, "4321", now.Add(10*time.Second))
	require.ErrorAs(t, err, &rateLimited)
	assert.Greater(t, rateLimited.RetryAfter, 14*time.Minute)
	assert.Zero(t, store.upserts)

	// After the lockout elapses the correct PIN goes through.
	err = v.ValidateJoin(context.Background(), bonfire.ID, userID, code, "4321", now.Add(16*time.Minute))
	require.NoError(t, err)
}

func TestValidateJoinWrongSecretNotCountedTowardLockout(t *testing.T) {
	setTestMasterKey(t)
	now := time.Date(2026, 3, 14, 10, 2, 0, 0, time.UTC)
	store := newFakeJoinStore()
	bonfire := testBonfire(t, now, "4321")
	store.bonfires[bonfire.ID] = bonfire
	v := NewJoinValidator(store)
	userID := uuid.New()

	for i := 0; i < 10; i++ {
		err := v.ValidateJoin(context.Background(), bonfire.ID, userID, "0000000000000000", "4321", now)
		assert.ErrorIs(t, err, ErrInvalidSecret)
	}

	code, _ := CurrentSecret(bonfire.ID.String(), now)
	err := v.ValidateJoin(context.Background(), bonfire.ID, userID, code, "4321", now)
	assert.NoError(t, err)
}
