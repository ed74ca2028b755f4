package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	a, err := HashPassword("same input")
	require.NoError(t, err)
	b, err := HashPassword("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordBadFormat(t *testing.T) {
	_, err := VerifyPassword("anything", "not-a-hash")
	assert.Error(t, err)
}

func TestValidPinFormat(t *testing.T) {
	valid := []string{"0000", "1234", "12345", "123456"}
	for _, pin := range valid {
		assert.True(t, ValidPinFormat(pin), pin)
	}
	invalid := []string{"", "123", "1234567", "12a4", " 1234", "12.4"}
	for _, pin := range invalid {
		assert.False(t, ValidPinFormat(pin), pin)
	}
}

func TestHashAndVerifyPin(t *testing.T) {
	hash, err := HashPin("4321")
	require.NoError(t, err)

	ok, err := VerifyPin("4321", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPin("9999", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPinRejectsBadFormat(t *testing.T) {
	_, err := HashPin("12")
	assert.Error(t, err)
}
