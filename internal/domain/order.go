package domain

import "time"

// OrderStatus represents checkout outcome states.
type OrderStatus string

const (
	OrderStatusPaid   OrderStatus = "PAID"
	OrderStatusFailed OrderStatus = "FAILED"
)

// Order records a completed checkout attempt.
type Order struct {
	ID          string
	UserID      string
	Status      OrderStatus
	TotalCents  int64
	ProviderRef string
	Items       []OrderItem
	CreatedAt   time.Time
}

// OrderItem is a purchased catalog entry snapshot. Title and price are
// copied at checkout time so later catalog edits do not rewrite history.
type OrderItem struct {
	ID         string
	OrderID    string
	MediaID    string
	Title      string
	PriceCents int64
}
