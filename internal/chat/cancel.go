package chat

import (
	"context"
	"fmt"

	"barberbook/internal/events"
	"barberbook/internal/models"
)

func (e *Engine) startCancel(ctx context.Context, userID int64) *Turn {
	recent, err := e.deps.Appointments.RecentAppointments(ctx, userID, e.deps.RecentCount)
	if err != nil {
		return e.internalError("list appointments", err)
	}
	booked := make([]models.Appointment, 0, len(recent))
	for _, a := range recent {
		if a.IsBooked() {
			booked = append(booked, a)
		}
	}
	if len(booked) == 0 {
		return reply(Idle{}, Reply{Kind: KindNoAppointmentsToCancel, Text: msgNoAppointments})
	}
	return reply(CancelList{Appointments: booked}, cancelPrompt(booked))
}

func (e *Engine) cancelList(s CancelList, text string) *Turn {
	i, ok := parseChoice(text, len(s.Appointments))
	if !ok {
		return reply(s, outOfRange(len(s.Appointments)), cancelPrompt(s.Appointments))
	}
	a := s.Appointments[i]
	return reply(CancelConfirm{Appointment: a}, Reply{
		Kind:    KindPrompt,
		Text:    fmt.Sprintf(msgConfirmCancel, a.ServiceName, a.ProviderName, humanDate(a.Date), a.Time),
		Options: []string{"yes", "no"},
	})
}

// cancelConfirm cancels on "yes" and then revokes reminders and the
// calendar entry. Cleanup failures are logged only.
func (e *Engine) cancelConfirm(ctx context.Context, userID int64, s CancelConfirm, text string) *Turn {
	switch {
	case isNo(text):
		return reply(Idle{}, Reply{Kind: KindNotCancelled, Text: msgNotCancelled})
	case !isYes(text):
		return reply(s, Reply{Kind: KindYesNoExpected, Text: msgYesNo, Options: []string{"yes", "no"}})
	}

	appt := s.Appointment
	if err := e.deps.Appointments.CancelAppointment(ctx, appt.ID, userID); err != nil {
		return e.persistenceFailure("cancel appointment", err, msgCancelFailed)
	}
	appt.Status = models.StatusCancelled

	outcome := &Outcome{Appointment: appt, Cancelled: true}
	if e.deps.Reminders != nil {
		outcome.record(EffectReminderCancel, e.deps.Reminders.CancelReminders(ctx, appt.ID, userID))
	}
	if e.deps.Calendar != nil {
		outcome.record(EffectCalendarRemove, e.deps.Calendar.RemoveCalendarEvent(ctx, &appt))
	}
	e.publish(outcome, events.EventAppointmentCancelled, userID)
	e.reportEffects(ctx, outcome)
	e.deps.Metrics.AppointmentCancelled()

	e.log(ctx).Info().Int64("appointment_id", appt.ID).Msg("appointment cancelled")

	turn := reply(Idle{}, Reply{
		Kind: KindCancelled,
		Text: fmt.Sprintf(msgCancelled, appt.ServiceName, appt.ProviderName, humanDate(appt.Date), appt.Time),
	})
	turn.Outcome = outcome
	return turn
}

func cancelPrompt(appts []models.Appointment) Reply {
	return Reply{
		Kind:    KindPrompt,
		Text:    msgChooseCancel + "\n" + numbered(appointmentLines(appts)),
		Options: choiceOptions(len(appts)),
	}
}
