// Package timeparse normalizes the clock times and day references that
// arrive from chat input and from stored availability.
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidTimeFormat = errors.New("invalid time format")

// TimeOfDay is a wall-clock time. The zero value is midnight.
type TimeOfDay struct {
	Hour   int
	Minute int
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:\s*([AaPp])\.?\s*[Mm]\.?)?$`)

// Clock24 returns the HH:MM form.
func (t TimeOfDay) Clock24() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Display returns the h:MM AM|PM form.
func (t TimeOfDay) Display() string {
	meridiem := "AM"
	if t.Hour >= 12 {
		meridiem = "PM"
	}
	h := t.Hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute, meridiem)
}

func (t TimeOfDay) String() string {
	return t.Display()
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// FromMinutes builds a TimeOfDay from minutes since midnight.
func FromMinutes(m int) TimeOfDay {
	return TimeOfDay{Hour: m / 60, Minute: m % 60}
}

// NormalizeDisplay parses H:MM, HH:MM or H:MM AM/PM. Any unicode space,
// including no-break and narrow no-break spaces, counts as whitespace.
// ok is false when raw matches neither the 24-hour nor the 12-hour grammar.
func NormalizeDisplay(raw string) (TimeOfDay, bool) {
	s := collapseSpaces(raw)
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, false
	}
	return fromParts(m[1], m[2], m[3])
}

// ParseClock is NormalizeDisplay with an error for callers that propagate one.
func ParseClock(raw string) (TimeOfDay, error) {
	t, ok := NormalizeDisplay(raw)
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
	}
	return t, nil
}

// To24Hour converts a normalized time to HH:MM.
func To24Hour(t TimeOfDay) string {
	return t.Clock24()
}

// AnyTo24 normalizes raw and returns its HH:MM form.
func AnyTo24(raw string) (string, bool) {
	t, ok := NormalizeDisplay(raw)
	if !ok {
		return "", false
	}
	return t.Clock24(), true
}

// EqualTimes reports whether a and b denote the same clock time. Both must parse.
func EqualTimes(a, b string) bool {
	x, ok := AnyTo24(a)
	if !ok {
		return false
	}
	y, ok := AnyTo24(b)
	if !ok {
		return false
	}
	return x == y
}

func fromParts(hour, minute, meridiem string) (TimeOfDay, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return TimeOfDay{}, false
	}
	m, err := strconv.Atoi(minute)
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, false
	}

	if meridiem == "" {
		if h < 0 || h > 23 {
			return TimeOfDay{}, false
		}
		return TimeOfDay{Hour: h, Minute: m}, true
	}

	if h < 1 || h > 12 {
		return TimeOfDay{}, false
	}
	pm := strings.EqualFold(meridiem, "p")
	switch {
	case pm && h != 12:
		h += 12
	case !pm && h == 12:
		h = 0
	}
	return TimeOfDay{Hour: h, Minute: m}, true
}

func collapseSpaces(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.TrimFunc(s, isSpace) {
		if isSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\u200b'
}
