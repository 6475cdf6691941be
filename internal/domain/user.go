package domain

import "time"

// Role represents the access level of an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// SubscriptionTier represents the billing plan attached to an account.
type SubscriptionTier string

const (
	TierFree  SubscriptionTier = "FREE"
	TierBasic SubscriptionTier = "BASIC"
	TierPro   SubscriptionTier = "PRO"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for platform accounts.
type User struct {
	ID                 string
	Name               string
	Email              string
	PasswordHash       string
	Role               Role
	SubscriptionStatus SubscriptionTier
	EmailVerified      bool
	Status             UserStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
