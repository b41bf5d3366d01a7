package models

import (
	"time"

	"github.com/google/uuid"
)

// Tier is a city's subscription tier. It is mirrored from the billing
// processor and overwritten last-write-wins by checkout and webhook
// reconciliation.
type Tier string

const (
	TierStarter Tier = "STARTER"
	TierPro     Tier = "PRO"
	TierPremier Tier = "PREMIER"
)

func (t Tier) Valid() bool {
	switch t {
	case TierStarter, TierPro, TierPremier:
		return true
	}
	return false
}

// Branding holds a city's board appearance. Stored as JSONB.
type Branding struct {
	Logo           string `json:"logo"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	Font           string `json:"font"`
	FooterText     string `json:"footer_text"`
}

type City struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Slug             string    `json:"slug" db:"slug"`
	Domain           string    `json:"domain" db:"domain"`
	Branding         Branding  `json:"branding" db:"branding"`
	SubscriptionTier Tier      `json:"subscription_tier" db:"subscription_tier"`
	StripeCustomerID *string   `json:"-" db:"stripe_customer_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// CityAnalytics is the moderation-status breakdown of a city's events
// inside a created-at window.
type CityAnalytics struct {
	TotalEvents    int             `json:"total_events"`
	ApprovedEvents int             `json:"approved_events"`
	RejectedEvents int             `json:"rejected_events"`
	FlaggedEvents  int             `json:"flagged_events"`
	Period         AnalyticsPeriod `json:"period"`
}

type AnalyticsPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
