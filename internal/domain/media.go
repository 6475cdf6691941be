package domain

import "time"

// MediaKind enumerates catalog content types.
type MediaKind string

const (
	MediaKindMovie   MediaKind = "MOVIE"
	MediaKindMusic   MediaKind = "MUSIC"
	MediaKindBlog    MediaKind = "BLOG"
	MediaKindPodcast MediaKind = "PODCAST"
)

// MediaItem is a single catalog entry. Tier is the minimum subscription
// tier needed to stream it; PriceCents is the one-off purchase price.
type MediaItem struct {
	ID          string
	Kind        MediaKind
	Title       string
	Slug        string
	Description string
	AuthorID    *string
	Tier        SubscriptionTier
	PriceCents  int64
	StreamURL   string
	Tags        []string
	Published   bool
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
