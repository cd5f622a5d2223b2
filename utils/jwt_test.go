package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	secret := []byte("front-desk")
	tok, err := GenerateToken(secret, "admin", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(secret, tok)
	require.NoError(t, err)
	require.Equal(t, "admin", claims["sub"])
	require.Equal(t, "admin", claims["role"])
}

func TestToken_WrongSecret(t *testing.T) {
	tok, err := GenerateToken([]byte("one"), "admin", "admin", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken([]byte("two"), tok)
	require.Error(t, err)
}

func TestToken_Expired(t *testing.T) {
	secret := []byte("front-desk")
	tok, err := GenerateToken(secret, "admin", "admin", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(secret, tok)
	require.Error(t, err)
}

func TestGenerateToken_NoSecret(t *testing.T) {
	_, err := GenerateToken(nil, "admin", "admin", time.Hour)
	require.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("clippers")
	require.NoError(t, err)
	require.True(t, CheckPassword(hash, "clippers"))
	require.False(t, CheckPassword(hash, "scissors"))
	require.False(t, CheckPassword("", "clippers"))
}
