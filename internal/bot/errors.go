package bot

import (
	"context"
	"errors"

	"barberbook/internal/calendar"
	"barberbook/internal/service"
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, service.ErrEmptyLocality) {
		return msgAreaUsage
	}

	if errors.Is(err, calendar.ErrNoCalendar) {
		return msgNoCalendar
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return msgTimeout
	}

	return msgGenericError
}

// isUserError reports errors caused by the user's input rather than the bot.
func isUserError(err error) bool {
	return errors.Is(err, service.ErrEmptyLocality) || errors.Is(err, calendar.ErrNoCalendar)
}
