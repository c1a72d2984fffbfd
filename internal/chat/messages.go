package chat

import (
	"fmt"
	"strings"

	"barberbook/internal/models"
	"barberbook/internal/timeparse"
)

// Тексты ответов бота
const (
	msgMenu = "What would you like to do?\n" +
		"1. New booking\n" +
		"2. Repeat last booking\n" +
		"3. Cancel a booking\n" +
		"4. Pay"
	msgUnknownCommand    = "Please reply with 1, 2, 3 or 4 (or new, repeat, cancel, pay)."
	msgAborted           = "Okay, back to the menu."
	msgNoProviders       = "No barbers found in your area. Set your area with /area <name> and try again."
	msgNoServices        = "This barber has no services listed yet. Type menu to start over."
	msgChooseProvider    = "Choose a barber by number:"
	msgChooseService     = "Choose a service by number:"
	msgOutOfRange        = "Please reply with a number from 1 to %d, or type menu to go back."
	msgAskDateTime       = "When would you like to come? For example \"Friday 9:00 AM\" or \"tomorrow 2pm\"."
	msgMissingTime       = "I couldn't find a time in that. Try something like \"Friday 9:00 AM\", or type menu to go back."
	msgMissingDay        = "I couldn't tell which day you mean. Use today, tomorrow, a weekday or YYYY-MM-DD, or type menu to go back."
	msgSlotUnavailable   = "%s at %s is not available. Available times that day: %s"
	msgSlotTaken         = "Sorry, %s at %s was just booked by someone else. Please pick another time."
	msgConfirmBooking    = "Book %s with %s on %s at %s for %s? Reply yes to confirm."
	msgNotConfirmed      = "Not confirmed. Send another day and time, or type menu to go back."
	msgBooked            = "Booked: %s with %s on %s at %s."
	msgBookingFailed     = "Booking failed, please try again from the menu."
	msgInternalError     = "Something went wrong, please try again from the menu."
	msgNoAppointments    = "You have no appointments to cancel."
	msgChooseCancel      = "Which appointment do you want to cancel?"
	msgConfirmCancel     = "Cancel %s with %s on %s at %s? Reply yes or no."
	msgYesNo             = "Please reply yes or no."
	msgCancelled         = "Cancelled: %s with %s on %s at %s."
	msgNotCancelled      = "Not cancelled."
	msgCancelFailed      = "Could not cancel, please try later."
	msgNoPrior           = "You have no previous booking to repeat. Choose another option."
	msgRepeatAskDateTime = "Repeat %s with %s for %s. When would you like to come?"
	msgPay               = "Payments are taken at the shop. You can also pay online when a link is available."
	msgPayLink           = "Pay for %s on %s: %s"
	msgSuggestion        = "Suggested: %s. %s"
	msgNone              = "None"
)

func menuReply() Reply {
	return Reply{Kind: KindMenu, Text: msgMenu, Options: []string{"1", "2", "3", "4"}}
}

func formatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func numbered(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, line)
	}
	return b.String()
}

func choiceOptions(n int) []string {
	opts := make([]string, 0, n+1)
	for i := 1; i <= n; i++ {
		opts = append(opts, fmt.Sprint(i))
	}
	return append(opts, "menu")
}

func providerLines(providers []models.Provider) []string {
	lines := make([]string, 0, len(providers))
	for _, p := range providers {
		if p.Address != "" {
			lines = append(lines, p.Name+", "+p.Address)
			continue
		}
		lines = append(lines, p.Name)
	}
	return lines
}

func serviceLines(services []models.Service) []string {
	lines := make([]string, 0, len(services))
	for _, s := range services {
		lines = append(lines, fmt.Sprintf("%s (%s)", s.Name, formatPrice(s.Price)))
	}
	return lines
}

func appointmentLines(appts []models.Appointment) []string {
	lines := make([]string, 0, len(appts))
	for _, a := range appts {
		lines = append(lines, fmt.Sprintf("%s at %s, %s with %s", humanDate(a.Date), a.Time, a.ServiceName, a.ProviderName))
	}
	return lines
}

func humanDate(date string) string {
	d, err := timeparse.ParseCalendarDate(date)
	if err != nil {
		return date
	}
	return d.Human()
}

func displayTime(raw string) string {
	if t, ok := timeparse.NormalizeDisplay(raw); ok {
		return t.Display()
	}
	return raw
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return msgNone
	}
	return strings.Join(items, ", ")
}
