package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	session := &Session{ExpiresAt: now.Add(time.Hour)}

	assert.False(t, session.Expired(now))
	assert.True(t, session.Expired(now.Add(2*time.Hour)))
}

func TestPermissionGrantActive(t *testing.T) {
	now := time.Now()

	forever := &PermissionGrant{}
	assert.True(t, forever.Active(now))

	future := now.Add(time.Hour)
	assert.True(t, (&PermissionGrant{ExpiresAt: &future}).Active(now))

	past := now.Add(-time.Hour)
	assert.False(t, (&PermissionGrant{ExpiresAt: &past}).Active(now))
}
