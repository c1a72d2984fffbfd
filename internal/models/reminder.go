package models

import "time"

// Reminder is a queued notification for one appointment.
type Reminder struct {
	ID            int64      `json:"id"`
	AppointmentID int64      `json:"appointment_id"`
	UserID        int64      `json:"user_id"`
	Message       string     `json:"message"`
	FireAt        time.Time  `json:"fire_at"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	LastError     *string    `json:"last_error"`
	CreatedAt     time.Time  `json:"created_at"`
	SentAt        *time.Time `json:"sent_at"`
}
