package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var timeFieldsPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)

// ComposeAppointmentDateTime builds the wall-clock instant for a stored
// date and time. The instant is assembled from numeric fields in loc, so a
// YYYY-MM-DD string is never read as UTC midnight and shifted a day.
func ComposeAppointmentDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	date, err := ParseCalendarDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}

	clock := collapseSpaces(timeStr)
	if normalized, ok := AnyTo24(clock); ok {
		clock = normalized
	}
	m := timeFieldsPattern.FindStringSubmatch(clock)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: time %q", ErrInvalidDateOrTime, timeStr)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second := 0
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("%w: time %q", ErrDateOutOfRange, timeStr)
	}

	if loc == nil {
		loc = time.Local
	}
	return time.Date(date.Year, date.Month, date.Day, hour, minute, second, 0, loc), nil
}
