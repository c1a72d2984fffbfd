package chat

import (
	"strconv"
	"strings"

	"barberbook/internal/timeparse"
)

func normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func isMenuCommand(text string) bool {
	t := normalize(text)
	return t == "menu" || t == "/menu"
}

func isYes(text string) bool {
	return normalize(text) == "yes"
}

func isNo(text string) bool {
	return normalize(text) == "no"
}

// parseChoice maps a 1-based answer to an index below n.
func parseChoice(text string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

// parseRequest finds the day and time of a booking request. Both must be
// present; the reply explains which one was missing.
func parseRequest(text string, today timeparse.CalendarDate) (timeparse.CalendarDate, timeparse.TimeOfDay, *Reply) {
	tod, ok := timeparse.FindTime(text)
	if !ok {
		return timeparse.CalendarDate{}, timeparse.TimeOfDay{}, &Reply{Kind: KindInvalidTimeFormat, Text: msgMissingTime}
	}
	date, ok := timeparse.FindDate(text, today)
	if !ok {
		return timeparse.CalendarDate{}, timeparse.TimeOfDay{}, &Reply{Kind: KindUnparseableDateTime, Text: msgMissingDay}
	}
	return date, tod, nil
}
