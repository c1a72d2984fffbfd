package chat

import (
	"context"
	"fmt"

	"barberbook/internal/models"
)

// startRepeat offers to book the last appointment again. The provider,
// service and price are reused as stored.
func (e *Engine) startRepeat(ctx context.Context, userID int64) *Turn {
	prev, err := e.deps.Appointments.MostRecentAppointment(ctx, userID)
	if err != nil {
		return e.internalError("load last appointment", err)
	}
	if prev == nil {
		return reply(Idle{}, Reply{Kind: KindNoPriorAppointment, Text: msgNoPrior, Options: menuReply().Options})
	}
	return reply(RepeatDateTime{Previous: *prev}, Reply{
		Kind: KindPrompt,
		Text: fmt.Sprintf(msgRepeatAskDateTime, prev.ServiceName, prev.ProviderName, formatPrice(prev.ServicePrice)) +
			"\n" + msgAskDateTime,
	})
}

// repeatDateTime books as soon as an available slot is named; there is
// no separate confirmation.
func (e *Engine) repeatDateTime(ctx context.Context, userID int64, s RepeatDateTime, text string) *Turn {
	date, tod, rejected := parseRequest(text, e.deps.Slots.Today())
	if rejected != nil {
		return reply(s, *rejected)
	}

	prev := s.Previous
	provider, err := e.deps.Directory.GetProvider(ctx, prev.ProviderID)
	if err != nil {
		return e.internalError("load provider", err)
	}
	slot, rejected, err := e.matchSlot(ctx, provider, text, date, tod)
	if err != nil {
		return e.internalError("resolve availability", err)
	}
	if rejected != nil {
		return reply(s, *rejected)
	}

	return e.book(ctx, userID, selection{
		ProviderID:   prev.ProviderID,
		ProviderName: prev.ProviderName,
		Service: models.Service{
			ProviderID: prev.ProviderID,
			Name:       prev.ServiceName,
			Price:      prev.ServicePrice,
			Duration:   prev.Duration,
		},
		Slot: slot,
	}, s)
}
