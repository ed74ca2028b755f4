package services

import (
	"errors"
	"fmt"
	"time"
)

// Join and discovery failures are typed so handlers can present distinct
// messaging ("wrong code" vs "wait 15 minutes") instead of opaque 500s.
var (
	// ErrInvalidSecret means the provided code matched neither the current
	// nor the previous secret window.
	ErrInvalidSecret = errors.New("invalid secret code")

	// ErrInvalidPin means the bonfire requires a PIN and the provided one did
	// not match. Counted toward the lockout.
	ErrInvalidPin = errors.New("invalid PIN")

	// ErrProximityDenied means the caller is outside the bonfire's radius.
	ErrProximityDenied = errors.New("outside bonfire proximity radius")

	// ErrBonfireNotFound covers missing, ended, and expired bonfires alike.
	ErrBonfireNotFound = errors.New("bonfire not found")

	// ErrNicknameTaken is returned on signup collision.
	ErrNicknameTaken = errors.New("nickname already taken")

	// ErrCreatorCannotLeave: the creator ends the bonfire instead of leaving it.
	ErrCreatorCannotLeave = errors.New("creator cannot leave an active bonfire")
)

// RateLimitedError is returned while a (bonfire, user) pair is locked out
// after repeated PIN failures.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed PIN attempts, retry in %s", e.RetryAfter.Round(time.Second))
}
