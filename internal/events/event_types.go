package events

import (
	"time"

	"github.com/spec-kit/media-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered      EventType = "user_registered"
	EventMediaPublished      EventType = "media_published"
	EventOrderCompleted      EventType = "order_completed"
	EventSubscriptionChanged EventType = "subscription_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// MediaPublishedPayload payload.
type MediaPublishedPayload struct {
	MediaID string           `json:"media_id"`
	Kind    domain.MediaKind `json:"kind"`
	Title   string           `json:"title"`
}

// OrderCompletedPayload payload.
type OrderCompletedPayload struct {
	OrderID    string `json:"order_id"`
	TotalCents int64  `json:"total_cents"`
	ItemCount  int    `json:"item_count"`
}

// SubscriptionChangedPayload payload.
type SubscriptionChangedPayload struct {
	OldTier domain.SubscriptionTier `json:"old_tier"`
	NewTier domain.SubscriptionTier `json:"new_tier"`
}
