package domain

import "time"

// PermissionGrant allows a resource/action pair either to a single user or
// to every holder of a role. A nil ExpiresAt never expires.
type PermissionGrant struct {
	ID        string
	UserID    *string
	Role      *Role
	Resource  string
	Action    string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Active reports whether the grant is usable at the given instant.
func (g *PermissionGrant) Active(now time.Time) bool {
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}
