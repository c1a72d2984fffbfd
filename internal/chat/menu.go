package chat

import (
	"context"
	"fmt"
)

func (e *Engine) handleMenu(ctx context.Context, userID int64, text string) *Turn {
	switch normalize(text) {
	case "1", "new", "new booking", "book":
		return e.startNew(ctx, userID)
	case "2", "repeat":
		return e.startRepeat(ctx, userID)
	case "3", "cancel":
		return e.startCancel(ctx, userID)
	case "4", "pay":
		return e.pay(ctx, userID)
	default:
		return reply(Idle{}, Reply{Kind: KindUnknownCommand, Text: msgUnknownCommand, Options: menuReply().Options})
	}
}

// pay has no flow of its own. A checkout link for the latest booked
// appointment is added when payments are configured.
func (e *Engine) pay(ctx context.Context, userID int64) *Turn {
	r := Reply{Kind: KindPay, Text: msgPay}
	if link := e.paymentLink(ctx, userID); link != "" {
		r.Text += "\n" + link
	}
	return reply(Idle{}, r)
}

func (e *Engine) paymentLink(ctx context.Context, userID int64) string {
	if e.deps.Payments == nil {
		return ""
	}
	appt, err := e.deps.Appointments.MostRecentAppointment(ctx, userID)
	if err != nil {
		e.log(ctx).Warn().Err(err).Int64("user_id", userID).Msg("failed to load appointment for payment")
		return ""
	}
	if !appt.IsBooked() {
		return ""
	}
	url, err := e.deps.Payments.CheckoutURL(ctx, appt)
	if err != nil {
		e.deps.Metrics.SideEffectFailed("payment_link")
		e.log(ctx).Error().Err(err).Int64("appointment_id", appt.ID).Msg("failed to create checkout link")
		return ""
	}
	return fmt.Sprintf(msgPayLink, appt.ServiceName, humanDate(appt.Date), url)
}
