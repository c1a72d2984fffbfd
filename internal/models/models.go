package models

import "time"

// SessionSnapshot is the persisted form of one user's conversation.
// Only the fields valid for Step are populated.
type SessionSnapshot struct {
	UserID       int64             `json:"user_id"`
	Generation   int64             `json:"generation"`
	Step         string            `json:"step"`
	Providers    []Provider        `json:"providers,omitempty"`
	Services     []Service         `json:"services,omitempty"`
	Provider     *Provider         `json:"provider,omitempty"`
	Service      *Service          `json:"service,omitempty"`
	Slot         *AvailabilitySlot `json:"slot,omitempty"`
	Appointments []Appointment     `json:"appointments,omitempty"`
	Appointment  *Appointment      `json:"appointment,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Profile is what the booking flows need to know about a customer.
type Profile struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	LocalityKey string `json:"locality_key"`
}

// Suggestion is a model-proposed alternative to an unavailable slot.
type Suggestion struct {
	Time        string `json:"suggested_time"`
	Explanation string `json:"explanation"`
}
