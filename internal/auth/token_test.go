package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, expiresAt, err := tm.GenerateToken("session-1", "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	token, _, err := tm.GenerateToken("session-1", "user-1")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	tm := &TokenManager{secret: []byte("test-secret"), ttl: -time.Minute}

	token, _, err := tm.GenerateToken("session-1", "user-1")
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	_, err := tm.ParseToken("not-a-jwt")
	assert.Error(t, err)
}

func TestNewTokenManagerDefaultTTL(t *testing.T) {
	tm := NewTokenManager("test-secret", 0)
	assert.Equal(t, time.Hour, tm.TTL())
}
