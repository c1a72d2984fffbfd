// Package availability computes and matches bookable provider slots.
package availability

import (
	"iter"
	"slices"

	"barberbook/internal/models"
	"barberbook/internal/timeparse"
)

// Compute projects a weekly working-hours template across days calendar days
// starting at from. Each working day yields slots from Start (inclusive) to
// End (exclusive) stepping by Interval minutes. Times are in display form.
func Compute(hours models.WorkingHours, from timeparse.CalendarDate, days int) iter.Seq[models.AvailabilitySlot] {
	return func(yield func(models.AvailabilitySlot) bool) {
		start, ok := timeparse.NormalizeDisplay(hours.Start)
		if !ok {
			return
		}
		end, ok := timeparse.NormalizeDisplay(hours.End)
		if !ok {
			return
		}
		step := hours.Interval
		if step <= 0 {
			step = models.DefaultSlotInterval
		}

		for i := 0; i < days; i++ {
			day := from.AddDays(i)
			if !hours.Days[day.Weekday()] {
				continue
			}
			for m := start.Minutes(); m < end.Minutes(); m += step {
				slot := models.AvailabilitySlot{
					Date: day.String(),
					Time: timeparse.FromMinutes(m).Display(),
				}
				if !yield(slot) {
					return
				}
			}
		}
	}
}

// ComputeAvailability materializes Compute for a provider.
func ComputeAvailability(p *models.Provider, from timeparse.CalendarDate, days int) []models.AvailabilitySlot {
	if p == nil {
		return nil
	}
	return slices.Collect(Compute(p.Hours, from, days))
}

// IsSlotAvailable finds the slot on date whose time matches requested.
// Times are compared in 24-hour form so display-form slots match 24-hour
// requests and the other way round.
func IsSlotAvailable(slots []models.AvailabilitySlot, date timeparse.CalendarDate, requested string) (models.AvailabilitySlot, bool) {
	want := date.String()
	for _, s := range slots {
		if s.Date == want && timeparse.EqualTimes(s.Time, requested) {
			return s, true
		}
	}
	return models.AvailabilitySlot{}, false
}

// TimesOn lists the display-form times available on date, in slot order.
func TimesOn(slots []models.AvailabilitySlot, date timeparse.CalendarDate) []string {
	want := date.String()
	var out []string
	for _, s := range slots {
		if s.Date != want {
			continue
		}
		if t, ok := timeparse.NormalizeDisplay(s.Time); ok {
			out = append(out, t.Display())
		}
	}
	return out
}

// OnDate filters slots to a single day.
func OnDate(slots []models.AvailabilitySlot, date timeparse.CalendarDate) []models.AvailabilitySlot {
	want := date.String()
	var out []models.AvailabilitySlot
	for _, s := range slots {
		if s.Date == want {
			out = append(out, s)
		}
	}
	return out
}
