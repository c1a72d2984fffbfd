package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	ErrInvalidDateOrTime = errors.New("invalid date or time")
	ErrDateOutOfRange    = fmt.Errorf("%w: component out of range", ErrInvalidDateOrTime)
)

// CalendarDate is a civil date with no location attached.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

var datePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// NewCalendarDate validates the components; it never normalizes overflow.
func NewCalendarDate(year int, month time.Month, day int) (CalendarDate, error) {
	if month < time.January || month > time.December {
		return CalendarDate{}, fmt.Errorf("%w: month %d", ErrDateOutOfRange, month)
	}
	if day < 1 || day > daysIn(month, year) {
		return CalendarDate{}, fmt.Errorf("%w: day %d", ErrDateOutOfRange, day)
	}
	return CalendarDate{Year: year, Month: month, Day: day}, nil
}

// ParseCalendarDate parses YYYY-MM-DD by field decomposition.
func ParseCalendarDate(s string) (CalendarDate, error) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return CalendarDate{}, fmt.Errorf("%w: date %q", ErrInvalidDateOrTime, s)
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return NewCalendarDate(y, time.Month(mo), d)
}

// DateOf returns the civil date of t in t's location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// AddDays moves the date by n calendar days.
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

func (d CalendarDate) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday()
}

// At returns the instant of this date at clock time t in loc.
func (d CalendarDate) At(t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

func (d CalendarDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Human returns "Fri Jun 20".
func (d CalendarDate) Human() string {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Format("Mon Jan 2")
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// Some abbreviations are ordinary words ("sat", "sun", "wed"), so they only
// count when no full day reference is present.
var weekdayAbbreviations = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"fri": time.Friday, "sat": time.Saturday,
}

// ResolveDayOffset finds the first day reference in text relative to today.
// "today" is 0, "tomorrow" is 1 and a bare weekday is the next such day,
// one to seven days ahead. Full words win over abbreviations.
func ResolveDayOffset(text string, today time.Weekday) (int, bool) {
	ws := words(text)
	for _, word := range ws {
		switch word {
		case "today", "tonight":
			return 0, true
		case "tomorrow", "tmrw":
			return 1, true
		}
		if wd, ok := weekdayNames[word]; ok {
			return weekdayOffset(wd, today), true
		}
	}
	for _, word := range ws {
		if wd, ok := weekdayAbbreviations[word]; ok {
			return weekdayOffset(wd, today), true
		}
	}
	return 0, false
}

func weekdayOffset(wd, today time.Weekday) int {
	offset := (int(wd) - int(today) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return offset
}

var (
	clockInText    = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})(?:\s*([ap])\.?\s*m\b\.?)?(?:\D|$)`)
	meridiemInText = regexp.MustCompile(`(?i)\b(\d{1,2})\s*([ap])\.?\s*m\b\.?`)
	isoDateInText  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
)

// FindTime extracts the first clock time from free text.
func FindTime(text string) (TimeOfDay, bool) {
	s := collapseSpaces(text)
	if m := clockInText.FindStringSubmatch(s); m != nil {
		return fromParts(m[1], m[2], m[3])
	}
	if m := meridiemInText.FindStringSubmatch(s); m != nil {
		return fromParts(m[1], "00", m[2])
	}
	return TimeOfDay{}, false
}

// FindDate resolves the day referenced by text: an explicit YYYY-MM-DD
// wins over relative words.
func FindDate(text string, today CalendarDate) (CalendarDate, bool) {
	if raw := isoDateInText.FindString(text); raw != "" {
		d, err := ParseCalendarDate(raw)
		if err == nil {
			return d, true
		}
	}
	offset, ok := ResolveDayOffset(text, today.Weekday())
	if !ok {
		return CalendarDate{}, false
	}
	return today.AddDays(offset), true
}

// ParseWeekday maps a weekday name or abbreviation.
func ParseWeekday(s string) (time.Weekday, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if wd, ok := weekdayNames[key]; ok {
		return wd, true
	}
	wd, ok := weekdayAbbreviations[key]
	return wd, ok
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
