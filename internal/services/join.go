package services

import (
	"context"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/models"
	"github.com/bonfireapp/bonfire-backend/pkg/utils"
	"github.com/google/uuid"
)

// JoinStore is the slice of storage the validator needs. The production
// implementation is Postgres-backed; tests substitute a fake.
type JoinStore interface {
	GetBonfire(ctx context.Context, id uuid.UUID) (*models.Bonfire, error)
	UpsertParticipant(ctx context.Context, bonfireID, userID uuid.UUID) error
}

// JoinValidator authorizes join requests: lockout check, secret window check,
// optional PIN check, then an idempotent participant upsert.
type JoinValidator struct {
	store    JoinStore
	lockouts *LockoutTracker
}

func NewJoinValidator(store JoinStore) *JoinValidator {
	return &JoinValidator{
		store:    store,
		lockouts: NewLockoutTracker(),
	}
}

// ValidateJoin runs the full authorization sequence at the given instant.
// Returns nil on success (including the already-a-participant case), or one
// of ErrBonfireNotFound, ErrInvalidSecret, ErrInvalidPin, *RateLimitedError.
//
// A wrong secret is not counted toward the PIN lockout: secrets rotate on
// their own and guessing one is already hopeless at 16 hex chars.
func (v *JoinValidator) ValidateJoin(ctx context.Context, bonfireID, userID uuid.UUID, secretCode, pin string, now time.Time) error {
	if until, locked := v.lockouts.LockedUntil(bonfireID, userID, now); locked {
		return &RateLimitedError{RetryAfter: until.Sub(now)}
	}

	bonfire, err := v.store.GetBonfire(ctx, bonfireID)
	if err != nil {
		return err
	}
	if !bonfire.Joinable(now) {
		return ErrBonfireNotFound
	}

	if !ValidateSecret(bonfire.ID.String(), secretCode, now) {
		return ErrInvalidSecret
	}

	if bonfire.HasPin {
		ok, err := utils.VerifyPin(pin, bonfire.PinHash)
		if err != nil || !ok {
			v.lockouts.RecordFailure(bonfireID, userID, now)
			return ErrInvalidPin
		}
		v.lockouts.Reset(bonfireID, userID)
	}

	// Single upsert: joining twice is a no-op, and two concurrent joins for
	// the same pair cannot produce a duplicate row or an error.
	return v.store.UpsertParticipant(ctx, bonfireID, userID)
}
