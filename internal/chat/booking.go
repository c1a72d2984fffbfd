package chat

import (
	"context"
	"errors"
	"fmt"

	"barberbook/internal/availability"
	"barberbook/internal/domain"
	"barberbook/internal/events"
	"barberbook/internal/models"
	"barberbook/internal/timeparse"
)

// selection is what a booking is built from. It is complete by the time
// it exists: provider, service and slot are all chosen.
type selection struct {
	ProviderID   int64
	ProviderName string
	Service      models.Service
	Slot         models.AvailabilitySlot
}

func (e *Engine) startNew(ctx context.Context, userID int64) *Turn {
	profile, err := e.deps.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return e.internalError("get profile", err)
	}
	providers, err := e.deps.Directory.ProvidersByLocality(ctx, profile.LocalityKey)
	if err != nil {
		return e.internalError("list providers", err)
	}
	if len(providers) == 0 {
		return reply(Idle{}, Reply{Kind: KindNoProvidersFound, Text: msgNoProviders})
	}
	return reply(ChooseProvider{Providers: providers}, providerPrompt(providers))
}

func (e *Engine) chooseProvider(ctx context.Context, s ChooseProvider, text string) *Turn {
	i, ok := parseChoice(text, len(s.Providers))
	if !ok {
		return reply(s, outOfRange(len(s.Providers)), providerPrompt(s.Providers))
	}
	provider := s.Providers[i]
	services, err := e.deps.Directory.ServicesForProvider(ctx, provider.ID)
	if err != nil {
		return e.internalError("list services", err)
	}
	if len(services) == 0 {
		return reply(Idle{}, Reply{Kind: KindNoServicesFound, Text: msgNoServices})
	}
	return reply(ChooseService{Provider: provider, Services: services}, servicePrompt(services))
}

func (e *Engine) chooseService(s ChooseService, text string) *Turn {
	i, ok := parseChoice(text, len(s.Services))
	if !ok {
		return reply(s, outOfRange(len(s.Services)), servicePrompt(s.Services))
	}
	next := ChooseDateTime{Provider: s.Provider, Service: s.Services[i]}
	return reply(next, Reply{Kind: KindPrompt, Text: msgAskDateTime})
}

func (e *Engine) chooseDateTime(ctx context.Context, s ChooseDateTime, text string) *Turn {
	date, tod, rejected := parseRequest(text, e.deps.Slots.Today())
	if rejected != nil {
		return reply(s, *rejected)
	}
	slot, rejected, err := e.matchSlot(ctx, &s.Provider, text, date, tod)
	if err != nil {
		return e.internalError("resolve availability", err)
	}
	if rejected != nil {
		return reply(s, *rejected)
	}

	next := ConfirmBooking{Provider: s.Provider, Service: s.Service, Slot: slot}
	return reply(next, Reply{
		Kind: KindPrompt,
		Text: fmt.Sprintf(msgConfirmBooking, s.Service.Name, s.Provider.Name,
			humanDate(slot.Date), displayTime(slot.Time), formatPrice(s.Service.Price)),
		Options: []string{"yes", "no"},
	})
}

// confirmBooking books on "yes". Anything else keeps provider and service
// and asks for another day and time.
func (e *Engine) confirmBooking(ctx context.Context, userID int64, s ConfirmBooking, text string) *Turn {
	retry := ChooseDateTime{Provider: s.Provider, Service: s.Service}
	if !isYes(text) {
		return reply(retry, Reply{Kind: KindNotConfirmed, Text: msgNotConfirmed})
	}
	return e.book(ctx, userID, selection{
		ProviderID:   s.Provider.ID,
		ProviderName: s.Provider.Name,
		Service:      s.Service,
		Slot:         s.Slot,
	}, retry)
}

// matchSlot checks the request against the provider's current slots.
// When it is not available the rejection lists that day's times.
func (e *Engine) matchSlot(ctx context.Context, p *models.Provider, text string,
	date timeparse.CalendarDate, tod timeparse.TimeOfDay,
) (models.AvailabilitySlot, *Reply, error) {
	slots, err := e.deps.Slots.Slots(ctx, p)
	if err != nil {
		return models.AvailabilitySlot{}, nil, err
	}
	if slot, ok := availability.IsSlotAvailable(slots, date, tod.Clock24()); ok {
		return slot, nil, nil
	}

	sameDay := availability.OnDate(slots, date)
	times := availability.TimesOn(sameDay, date)
	r := Reply{
		Kind: KindSlotUnavailable,
		Text: fmt.Sprintf(msgSlotUnavailable, date.Human(), tod.Display(), listOrNone(times)),
	}
	if sugg := e.suggest(ctx, text, sameDay, times); sugg != nil {
		r.Suggestion = sugg
		r.Text += "\n" + fmt.Sprintf(msgSuggestion, sugg.Time, sugg.Explanation)
		r.Options = []string{date.String() + " " + sugg.Time}
	}
	return models.AvailabilitySlot{}, &r, nil
}

// suggest asks the model for an alternative. Only a suggestion naming one
// of the listed times is kept.
func (e *Engine) suggest(ctx context.Context, text string, candidates []models.AvailabilitySlot, times []string) *models.Suggestion {
	if e.deps.Suggester == nil || len(candidates) == 0 {
		return nil
	}
	sugg, err := e.deps.Suggester.Suggest(ctx, text, candidates)
	if err != nil {
		e.deps.Metrics.SideEffectFailed("suggestion")
		e.log(ctx).Warn().Err(err).Msg("suggestion failed")
		return nil
	}
	if sugg == nil {
		return nil
	}
	for _, t := range times {
		if timeparse.EqualTimes(t, sugg.Time) {
			return &models.Suggestion{Time: t, Explanation: sugg.Explanation}
		}
	}
	e.log(ctx).Debug().Str("suggested", sugg.Time).Msg("suggestion not among available times")
	return nil
}

// book stores the appointment and runs its side effects. retry is the
// state to go back to when the slot was taken in the meantime.
func (e *Engine) book(ctx context.Context, userID int64, sel selection, retry State) *Turn {
	profile, err := e.deps.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return e.persistenceFailure("get profile", err, msgBookingFailed)
	}
	t24, ok := timeparse.AnyTo24(sel.Slot.Time)
	if !ok {
		return e.persistenceFailure("normalize slot time", timeparse.ErrInvalidTimeFormat, msgBookingFailed)
	}

	appt := models.Appointment{
		CustomerID:   userID,
		CustomerName: profile.DisplayName,
		ProviderID:   sel.ProviderID,
		ProviderName: sel.ProviderName,
		ServiceName:  sel.Service.Name,
		ServicePrice: sel.Service.Price,
		Duration:     sel.Service.Duration,
		Date:         sel.Slot.Date,
		Time:         displayTime(sel.Slot.Time),
		Time24:       t24,
		Status:       models.StatusBooked,
	}
	err = e.deps.Appointments.CreateAppointment(ctx, &appt)
	switch {
	case errors.Is(err, domain.ErrSlotTaken):
		return reply(retry, Reply{
			Kind: KindSlotUnavailable,
			Text: fmt.Sprintf(msgSlotTaken, humanDate(appt.Date), appt.Time),
		})
	case err != nil:
		return e.persistenceFailure("create appointment", err, msgBookingFailed)
	}

	outcome := &Outcome{Appointment: appt}
	if e.deps.Calendar != nil {
		outcome.record(EffectCalendarAdd, e.deps.Calendar.AddCalendarEvent(ctx, &appt))
	}
	if e.deps.Reminders != nil {
		outcome.record(EffectReminderAdd, e.deps.Reminders.ScheduleReminder(ctx, &appt, userID))
	}
	e.publish(outcome, events.EventAppointmentBooked, userID)
	e.reportEffects(ctx, outcome)
	e.deps.Metrics.AppointmentBooked()

	e.log(ctx).Info().
		Int64("appointment_id", appt.ID).
		Int64("provider_id", appt.ProviderID).
		Str("date", appt.Date).
		Str("time", appt.Time24).
		Msg("appointment booked")

	turn := reply(Idle{}, Reply{
		Kind: KindBooked,
		Text: fmt.Sprintf(msgBooked, appt.ServiceName, appt.ProviderName, humanDate(appt.Date), appt.Time),
	})
	turn.Outcome = outcome
	return turn
}

func (e *Engine) publish(outcome *Outcome, eventType string, actorID int64) {
	if e.deps.Events == nil {
		return
	}
	payload := events.NewAppointmentPayload(&outcome.Appointment, actorID)
	outcome.record(EffectEventPublish, e.deps.Events.PublishJSON(eventType, payload))
}

func (e *Engine) reportEffects(ctx context.Context, outcome *Outcome) {
	for _, failed := range outcome.Failed() {
		e.deps.Metrics.SideEffectFailed(string(failed.Effect))
		e.log(ctx).Error().Err(failed.Err).
			Str("effect", string(failed.Effect)).
			Int64("appointment_id", outcome.Appointment.ID).
			Msg("side effect failed")
	}
}

func (o *Outcome) record(effect Effect, err error) {
	o.Effects = append(o.Effects, EffectResult{Effect: effect, Err: err})
}

func providerPrompt(providers []models.Provider) Reply {
	return Reply{
		Kind:    KindPrompt,
		Text:    msgChooseProvider + "\n" + numbered(providerLines(providers)),
		Options: choiceOptions(len(providers)),
	}
}

func servicePrompt(services []models.Service) Reply {
	return Reply{
		Kind:    KindPrompt,
		Text:    msgChooseService + "\n" + numbered(serviceLines(services)),
		Options: choiceOptions(len(services)),
	}
}

func outOfRange(n int) Reply {
	return Reply{Kind: KindOutOfRangeSelection, Text: fmt.Sprintf(msgOutOfRange, n)}
}
