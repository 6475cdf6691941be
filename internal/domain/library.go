package domain

import "time"

// LibraryEntry links a user to a saved catalog item.
type LibraryEntry struct {
	ID        string
	UserID    string
	MediaID   string
	Liked     bool
	CreatedAt time.Time
}
