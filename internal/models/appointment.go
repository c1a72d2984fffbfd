package models

import "time"

type Appointment struct {
	ID           int64      `json:"id"`
	CustomerID   int64      `json:"customer_id"`
	CustomerName string     `json:"customer_name"`
	ProviderID   int64      `json:"provider_id"`
	ProviderName string     `json:"provider_name"`
	ServiceName  string     `json:"service_name"`
	ServicePrice int64      `json:"service_price"` // minor currency units
	Duration     int        `json:"duration"`      // minutes
	Date         string     `json:"date"`          // YYYY-MM-DD
	Time         string     `json:"time"`          // h:MM AM|PM
	Time24       string     `json:"time24"`        // HH:MM
	Status       string     `json:"status"`        // booked, cancelled
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CancelledBy  int64      `json:"cancelled_by,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
}

func (a *Appointment) IsBooked() bool {
	return a != nil && a.Status == StatusBooked
}
