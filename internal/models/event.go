package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the moderation lifecycle stage of an event.
type EventStatus string

const (
	StatusDraft    EventStatus = "DRAFT"
	StatusPending  EventStatus = "PENDING"
	StatusApproved EventStatus = "APPROVED"
	StatusRejected EventStatus = "REJECTED"
	StatusFlagged  EventStatus = "FLAGGED"
)

func (s EventStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusFlagged:
		return true
	}
	return false
}

// InitialStatus is the creation-time status rule: admins publish
// directly, everyone else enters the moderation queue.
func InitialStatus(role Role) EventStatus {
	if role == RoleAdmin {
		return StatusApproved
	}
	return StatusPending
}

// ModerationTarget reports whether target is a legal input to the
// moderation decision operation. Only APPROVED and REJECTED are
// decisions; FLAGGED is reached through the public report path and
// DRAFT has no producing transition.
func ModerationTarget(target EventStatus) bool {
	return target == StatusApproved || target == StatusRejected
}

// CanModerate reports whether a moderation decision may move an event
// from its current status to target. A flag does not block a later
// decision.
func CanModerate(from, target EventStatus) bool {
	if !ModerationTarget(target) {
		return false
	}
	switch from {
	case StatusPending, StatusApproved, StatusRejected, StatusFlagged:
		return true
	}
	return false
}

// Location is an event venue. Stored as JSONB.
type Location struct {
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	ZipCode   string  `json:"zip_code"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Recurrence describes a repeating event. Stored as JSONB.
type Recurrence struct {
	Frequency string     `json:"frequency"` // DAILY, WEEKLY, MONTHLY, YEARLY
	Interval  int        `json:"interval"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

func (r Recurrence) Valid() bool {
	switch r.Frequency {
	case "DAILY", "WEEKLY", "MONTHLY", "YEARLY":
		return r.Interval >= 1
	}
	return false
}

// Event belongs to exactly one city and one creator; both references
// are immutable after creation.
type Event struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	CityID       uuid.UUID   `json:"city_id" db:"city_id"`
	CreatorID    uuid.UUID   `json:"creator_id" db:"creator_id"`
	Title        string      `json:"title" db:"title"`
	Description  string      `json:"description" db:"description"`
	StartTime    time.Time   `json:"start_time" db:"start_time"`
	EndTime      time.Time   `json:"end_time" db:"end_time"`
	Location     Location    `json:"location" db:"location"`
	Category     string      `json:"category" db:"category"`
	ExternalLink *string     `json:"external_link,omitempty" db:"external_link"`
	Images       []string    `json:"images" db:"images"`
	Status       EventStatus `json:"status" db:"status"`
	Recurrence   *Recurrence `json:"recurrence,omitempty" db:"recurrence"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}
