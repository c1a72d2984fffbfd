package domain

import (
	"context"
	"time"

	"barberbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ProfileStore keeps customer profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	UpdateUserLocality(ctx context.Context, telegramID int64, localityKey string) error
	UpdateUserActivity(ctx context.Context, telegramID int64) error
}

// ProviderDirectory answers provider, service and precomputed slot lookups.
type ProviderDirectory interface {
	ProvidersByLocality(ctx context.Context, localityKey string) ([]models.Provider, error)
	GetProvider(ctx context.Context, providerID int64) (*models.Provider, error)
	ServicesForProvider(ctx context.Context, providerID int64) ([]models.Service, error)
	ProviderAvailability(ctx context.Context, providerID int64) ([]models.AvailabilitySlot, error)
}

// AppointmentRepository persists appointments. Cancellation is a status change.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	CancelAppointment(ctx context.Context, appointmentID, actorUserID int64) error
	GetAppointment(ctx context.Context, appointmentID int64) (*models.Appointment, error)
	// RecentAppointments returns up to count appointments, newest first.
	RecentAppointments(ctx context.Context, userID int64, count int) ([]models.Appointment, error)
	// MostRecentAppointment returns nil without error when the user has none.
	MostRecentAppointment(ctx context.Context, userID int64) (*models.Appointment, error)
	BookedSlots(ctx context.Context, providerID int64, fromDate, toDate string) ([]models.AvailabilitySlot, error)
}

type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, appt *models.Appointment, userID int64) error
	CancelReminders(ctx context.Context, appointmentID, userID int64) error
}

type CalendarSync interface {
	AddCalendarEvent(ctx context.Context, appt *models.Appointment) error
	RemoveCalendarEvent(ctx context.Context, appt *models.Appointment) error
}

// Suggester asks a language model to pick among candidate slots.
type Suggester interface {
	Suggest(ctx context.Context, freeText string, candidates []models.AvailabilitySlot) (*models.Suggestion, error)
}

type PaymentLinker interface {
	CheckoutURL(ctx context.Context, appt *models.Appointment) (string, error)
}

// StateRepository stores conversation snapshots. GetSession returns nil
// without error when the user has no session.
type StateRepository interface {
	GetSession(ctx context.Context, userID int64) (*models.SessionSnapshot, error)
	SetSession(ctx context.Context, snap *models.SessionSnapshot) error
	ClearSession(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendDocument(chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
