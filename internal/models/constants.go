package models

const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

const (
	AvailabilityTemplate = "template"
	AvailabilitySlots    = "slots"
)

const (
	ReminderPending   = "pending"
	ReminderSent      = "sent"
	ReminderCancelled = "cancelled"
	ReminderFailed    = "failed"
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// DefaultSessionTTL время жизни сессии диалога в Redis
	DefaultSessionTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultRecentAppointments сколько последних записей показывать при отмене
	DefaultRecentAppointments = 3

	// DefaultAvailabilityDays окно расчета свободных слотов
	DefaultAvailabilityDays = 7

	// DefaultSlotInterval шаг слотов по умолчанию, минут
	DefaultSlotInterval = 30

	// DefaultServiceDuration длительность услуги по умолчанию, минут
	DefaultServiceDuration = 30

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// ReminderPollInterval период опроса очереди напоминаний
	ReminderPollInterval = 30 // секунд

	// ReminderMaxRetries попыток доставки напоминания
	ReminderMaxRetries = 5
)
