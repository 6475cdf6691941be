package domain

import "time"

// Session is a server-side login record. The bearer token carries the
// session ID, so deleting the row invalidates the token immediately.
type Session struct {
	ID        string
	UserID    string
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
