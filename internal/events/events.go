package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"barberbook/internal/models"
)

const (
	EventAppointmentBooked    = "appointment_booked"
	EventAppointmentCancelled = "appointment_cancelled"
)

// AppointmentEventPayload describes the appointment snapshot for event consumers.
type AppointmentEventPayload struct {
	AppointmentID int64  `json:"appointment_id"`
	CustomerID    int64  `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	ProviderID    int64  `json:"provider_id"`
	ProviderName  string `json:"provider_name"`
	ServiceName   string `json:"service_name"`
	ServicePrice  int64  `json:"service_price"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	ChangedByID   int64  `json:"changed_by_id,omitempty"`
}

func NewAppointmentPayload(a *models.Appointment, actorID int64) AppointmentEventPayload {
	return AppointmentEventPayload{
		AppointmentID: a.ID,
		CustomerID:    a.CustomerID,
		CustomerName:  a.CustomerName,
		ProviderID:    a.ProviderID,
		ProviderName:  a.ProviderName,
		ServiceName:   a.ServiceName,
		ServicePrice:  a.ServicePrice,
		Date:          a.Date,
		Time:          a.Time24,
		Status:        a.Status,
		ChangedByID:   actorID,
	}
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// DecodeAppointment unpacks the payload of an appointment event.
func (e *Event) DecodeAppointment() (AppointmentEventPayload, error) {
	var p AppointmentEventPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. Every handler runs;
// their errors are joined.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
