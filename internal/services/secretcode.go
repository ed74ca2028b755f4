package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

const (
	// SecretWindowDuration is the rotation cadence of join codes. A code is
	// accepted for its own window plus the following one, so widening the
	// acceptance tolerance means widening this value, not adding windows.
	SecretWindowDuration = 5 * time.Minute

	// SecretCodeLength is the number of hex digest characters kept.
	SecretCodeLength = 16
)

var secretMasterKey []byte

// SetMasterKey installs the process-wide HMAC key. Called once at startup;
// an empty key is a configuration error, not something to limp along with.
func SetMasterKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("BONFIRE_SECRET_KEY is not set")
	}
	secretMasterKey = []byte(key)
	return nil
}

// WindowStart aligns t down to the nearest window boundary in UTC.
// Piecewise-constant: any two instants inside one window map to the same value.
func WindowStart(t time.Time) time.Time {
	return t.UTC().Truncate(SecretWindowDuration)
}

// PreviousWindowStart returns the start of the window before t's.
func PreviousWindowStart(t time.Time) time.Time {
	return WindowStart(t).Add(-SecretWindowDuration)
}

// DeriveSecret computes the join code for a (bonfire, window) pair:
// HMAC-SHA256 over "<bonfireID>:<windowStart RFC3339>", hex, first 16 chars,
// uppercased. Deterministic, so the owner's device and the validator agree
// without ever exchanging the code.
func DeriveSecret(bonfireID string, windowStart time.Time) string {
	mac := hmac.New(sha256.New, secretMasterKey)
	mac.Write([]byte(bonfireID + ":" + windowStart.UTC().Format(time.RFC3339)))
	digest := hex.EncodeToString(mac.Sum(nil))
	return strings.ToUpper(digest[:SecretCodeLength])
}

// CurrentSecret returns the code for the window containing now, plus the
// window start it belongs to.
func CurrentSecret(bonfireID string, now time.Time) (string, time.Time) {
	ws := WindowStart(now)
	return DeriveSecret(bonfireID, ws), ws
}

// NormalizeSecret trims whitespace and uppercases; codes are case-insensitive
// on input.
func NormalizeSecret(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateSecret checks a provided code against the current and the previous
// window. The previous window stays valid so a code read just before rollover
// can still be typed in just after it.
func ValidateSecret(bonfireID, providedCode string, now time.Time) bool {
	provided := []byte(NormalizeSecret(providedCode))
	current := []byte(DeriveSecret(bonfireID, WindowStart(now)))
	previous := []byte(DeriveSecret(bonfireID, PreviousWindowStart(now)))
	return hmac.Equal(provided, current) || hmac.Equal(provided, previous)
}
