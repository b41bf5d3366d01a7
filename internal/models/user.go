package models

import (
	"time"

	"github.com/google/uuid"
)

// Role gates which operations a user may invoke.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleEventCreator Role = "EVENT_CREATOR"
	RoleVisitor      Role = "VISITOR"
)

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEventCreator, RoleVisitor:
		return true
	}
	return false
}

// Registerable reports whether r may be assigned at registration or via
// a role update. Visitors never hold accounts.
func (r Role) Registerable() bool {
	return r == RoleAdmin || r == RoleEventCreator
}

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CityID       uuid.UUID `json:"city_id" db:"city_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize in JSON
	Name         string    `json:"name" db:"name"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CitySummary is the embedded city view returned with the current
// user's profile.
type CitySummary struct {
	Name             string `json:"name"`
	Domain           string `json:"domain"`
	SubscriptionTier Tier   `json:"subscription_tier"`
}
