package worker

import (
	"context"
	"fmt"
	"time"

	"barberbook/internal/models"
	"barberbook/internal/timeparse"

	"github.com/rs/zerolog"
)

// ReminderStore is the reminder queue.
type ReminderStore interface {
	CreateReminder(ctx context.Context, r *models.Reminder) error
	CancelReminders(ctx context.Context, appointmentID, userID int64) (int64, error)
	DueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
	MarkReminderSent(ctx context.Context, id int64) error
	MarkReminderRetry(ctx context.Context, id int64, errMsg string, nextAttempt time.Time) error
	MarkReminderFailed(ctx context.Context, id int64, errMsg string) error
}

// ReminderScheduler queues reminders at fixed offsets before an appointment.
type ReminderScheduler struct {
	store   ReminderStore
	offsets []time.Duration
	loc     *time.Location
	now     func() time.Time
	logger  *zerolog.Logger
}

func NewReminderScheduler(store ReminderStore, offsets []time.Duration, loc *time.Location, logger *zerolog.Logger) *ReminderScheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ReminderScheduler{
		store:   store,
		offsets: offsets,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// ScheduleReminder queues one reminder per offset. Offsets that already
// passed are skipped.
func (s *ReminderScheduler) ScheduleReminder(ctx context.Context, appt *models.Appointment, userID int64) error {
	at, err := timeparse.ComposeAppointmentDateTime(appt.Date, appt.Time24, s.loc)
	if err != nil {
		return fmt.Errorf("appointment %d time: %w", appt.ID, err)
	}

	now := s.now()
	for _, offset := range s.offsets {
		fireAt := at.Add(-offset)
		if !fireAt.After(now) {
			continue
		}
		r := &models.Reminder{
			AppointmentID: appt.ID,
			UserID:        userID,
			Message:       reminderText(appt, offset),
			FireAt:        fireAt,
		}
		if err := s.store.CreateReminder(ctx, r); err != nil {
			return fmt.Errorf("schedule reminder for appointment %d: %w", appt.ID, err)
		}
		s.logger.Debug().Int64("appointment_id", appt.ID).Time("fire_at", fireAt).Msg("reminder scheduled")
	}
	return nil
}

func (s *ReminderScheduler) CancelReminders(ctx context.Context, appointmentID, userID int64) error {
	n, err := s.store.CancelReminders(ctx, appointmentID, userID)
	if err != nil {
		return err
	}
	s.logger.Debug().Int64("appointment_id", appointmentID).Int64("cancelled", n).Msg("reminders cancelled")
	return nil
}

func reminderText(appt *models.Appointment, offset time.Duration) string {
	var when string
	switch {
	case offset == time.Hour:
		when = "in 1 hour"
	case offset > time.Hour && offset%time.Hour == 0:
		when = fmt.Sprintf("in %d hours", int(offset/time.Hour))
	default:
		when = fmt.Sprintf("in %d minutes", int(offset/time.Minute))
	}
	return fmt.Sprintf("Reminder: %s with %s %s (%s at %s).", appt.ServiceName, appt.ProviderName, when, appt.Date, appt.Time)
}
