package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"barberbook/internal/models"
	"barberbook/internal/timeparse"

	"github.com/rs/zerolog"
)

// SlotSource returns a provider's precomputed slots.
type SlotSource interface {
	ProviderAvailability(ctx context.Context, providerID int64) ([]models.AvailabilitySlot, error)
}

// BookedSource returns the slots already held by booked appointments.
type BookedSource interface {
	BookedSlots(ctx context.Context, providerID int64, fromDate, toDate string) ([]models.AvailabilitySlot, error)
}

// Resolver chooses the template or precomputed path per provider and
// removes past and already booked slots.
type Resolver struct {
	source SlotSource
	booked BookedSource
	days   int
	loc    *time.Location
	now    func() time.Time
	logger *zerolog.Logger
}

func NewResolver(source SlotSource, booked BookedSource, days int, loc *time.Location, logger *zerolog.Logger) *Resolver {
	if days <= 0 {
		days = models.DefaultAvailabilityDays
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Resolver{
		source: source,
		booked: booked,
		days:   days,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Today is the current civil date in the resolver's location.
func (r *Resolver) Today() timeparse.CalendarDate {
	return timeparse.DateOf(r.now().In(r.loc))
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Slots returns the bookable slots for p, ordered by date then time.
func (r *Resolver) Slots(ctx context.Context, p *models.Provider) ([]models.AvailabilitySlot, error) {
	if p == nil {
		return nil, fmt.Errorf("provider is nil")
	}

	today := r.Today()
	var slots []models.AvailabilitySlot
	switch p.Availability {
	case models.AvailabilitySlots:
		fetched, err := r.source.ProviderAvailability(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch availability for provider %d: %w", p.ID, err)
		}
		slots = fetched
	default:
		slots = ComputeAvailability(p, today, r.days)
	}

	slots = r.dropPast(slots)
	if r.booked != nil && len(slots) > 0 {
		held, err := r.booked.BookedSlots(ctx, p.ID, today.String(), today.AddDays(r.days).String())
		if err != nil {
			return nil, fmt.Errorf("fetch booked slots for provider %d: %w", p.ID, err)
		}
		slots = Exclude(slots, held)
	}

	sortSlots(slots)
	r.logger.Debug().Int64("provider_id", p.ID).Int("slots", len(slots)).Msg("resolved availability")
	return slots, nil
}

func (r *Resolver) dropPast(slots []models.AvailabilitySlot) []models.AvailabilitySlot {
	now := r.now()
	out := slots[:0:0]
	for _, s := range slots {
		at, err := timeparse.ComposeAppointmentDateTime(s.Date, s.Time, r.loc)
		if err != nil {
			r.logger.Warn().Str("date", s.Date).Str("time", s.Time).Msg("skipping malformed slot")
			continue
		}
		if at.Before(now) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Exclude drops every slot present in held.
func Exclude(slots, held []models.AvailabilitySlot) []models.AvailabilitySlot {
	if len(held) == 0 {
		return slots
	}
	taken := make(map[string]struct{}, len(held))
	for _, h := range held {
		if t, ok := timeparse.AnyTo24(h.Time); ok {
			taken[h.Date+" "+t] = struct{}{}
		}
	}
	out := slots[:0:0]
	for _, s := range slots {
		t, _ := timeparse.AnyTo24(s.Time)
		if _, ok := taken[s.Date+" "+t]; ok {
			continue
		}
		out = append(out, s)
	}
	return out
}

func sortSlots(slots []models.AvailabilitySlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		a, _ := timeparse.AnyTo24(slots[i].Time)
		b, _ := timeparse.AnyTo24(slots[j].Time)
		return a < b
	})
}
