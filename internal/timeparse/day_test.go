package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDayOffset(t *testing.T) {
	off, ok := ResolveDayOffset("tomorrow", time.Wednesday)
	require.True(t, ok)
	assert.Equal(t, 1, off)

	off, ok = ResolveDayOffset("Today please", time.Sunday)
	require.True(t, ok)
	assert.Equal(t, 0, off)

	_, ok = ResolveDayOffset("whenever works", time.Sunday)
	assert.False(t, ok)
}

func TestResolveDayOffset_Weekdays(t *testing.T) {
	start := CalendarDate{Year: 2025, Month: time.March, Day: 9} // Sunday
	for i := 0; i < 7; i++ {
		today := start.AddDays(i)
		for _, names := range []map[string]time.Weekday{weekdayNames, weekdayAbbreviations} {
			for name, wd := range names {
				off, ok := ResolveDayOffset("book me "+name+" at 9", today.Weekday())
				require.True(t, ok, name)
				assert.GreaterOrEqual(t, off, 1, name)
				assert.LessOrEqual(t, off, 7, name)
				assert.Equal(t, wd, today.AddDays(off).Weekday(), name)
			}
		}
	}
}

func TestParseCalendarDate(t *testing.T) {
	d, err := ParseCalendarDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, CalendarDate{Year: 2024, Month: time.February, Day: 29}, d)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseCalendarDate("2025-02-29")
	assert.ErrorIs(t, err, ErrDateOutOfRange)

	_, err = ParseCalendarDate("2025-13-01")
	assert.ErrorIs(t, err, ErrInvalidDateOrTime)
	assert.ErrorIs(t, err, ErrDateOutOfRange)

	_, err = ParseCalendarDate("not-a-date")
	assert.ErrorIs(t, err, ErrInvalidDateOrTime)
	assert.NotErrorIs(t, err, ErrDateOutOfRange)
}

func TestCalendarDate_AddDays(t *testing.T) {
	d := CalendarDate{Year: 2024, Month: time.December, Day: 30}
	assert.Equal(t, "2025-01-02", d.AddDays(3).String())
	assert.Equal(t, "2024-12-29", d.AddDays(-1).String())
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "Mon Dec 30", d.Human())
}

func TestFindTime(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"tomorrow at 9:30", "09:30", true},
		{"friday 2:15 PM please", "14:15", true},
		{"9am", "09:00", true},
		{"how about 4 pm on monday", "16:00", true},
		{"12 am", "00:00", true},
		{"sometime tomorrow", "", false},
		{"at 27:00", "", false},
		{"tomorrow at 9:005", "", false},
		{"9:00am sharp", "09:00", true},
		{"friday 10:30", "10:30", true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := FindTime(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Clock24())
			}
		})
	}
}

func TestFindDate(t *testing.T) {
	today := CalendarDate{Year: 2025, Month: time.June, Day: 18} // Wednesday

	d, ok := FindDate("2025-06-20 9:00", today)
	require.True(t, ok)
	assert.Equal(t, "2025-06-20", d.String())

	d, ok = FindDate("friday at 10", today)
	require.True(t, ok)
	assert.Equal(t, "2025-06-20", d.String())

	d, ok = FindDate("wednesday", today)
	require.True(t, ok)
	assert.Equal(t, "2025-06-25", d.String())

	_, ok = FindDate("soon", today)
	assert.False(t, ok)
}

func TestFindDate_FullNameBeatsAbbreviation(t *testing.T) {
	today := CalendarDate{Year: 2025, Month: time.June, Day: 18} // Wednesday

	d, ok := FindDate("I sat down, want friday 9:00", today)
	require.True(t, ok)
	assert.Equal(t, "2025-06-20", d.String())

	d, ok = FindDate("sun is out, book me tomorrow", today)
	require.True(t, ok)
	assert.Equal(t, "2025-06-19", d.String())

	d, ok = FindDate("fri 9am", today)
	require.True(t, ok)
	assert.Equal(t, "2025-06-20", d.String())

	d, ok = FindDate("sat 10:00", today)
	require.True(t, ok)
	assert.Equal(t, "2025-06-21", d.String())
}

func TestComposeAppointmentDateTime(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)

	got, err := ComposeAppointmentDateTime("2025-03-10", "9:00 AM", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, loc), got)
	assert.Equal(t, 10, got.Day())

	got, err = ComposeAppointmentDateTime("2025-03-10", "17:45:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 10, 17, 45, 30, 0, loc), got)

	_, err = ComposeAppointmentDateTime("2025-13-01", "9:00 AM", loc)
	assert.ErrorIs(t, err, ErrInvalidDateOrTime)

	_, err = ComposeAppointmentDateTime("not-a-date", "9:00 AM", loc)
	assert.ErrorIs(t, err, ErrInvalidDateOrTime)

	_, err = ComposeAppointmentDateTime("2025-03-10", "noon", loc)
	assert.ErrorIs(t, err, ErrInvalidDateOrTime)

	_, err = ComposeAppointmentDateTime("2025-03-10", "25:00", loc)
	assert.ErrorIs(t, err, ErrDateOutOfRange)
}
