// Package calendar keeps one iCalendar file per customer with their
// booked appointments.
package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"barberbook/internal/models"
	"barberbook/internal/timeparse"

	ics "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"
)

const uidSuffix = "@barberbook"

var (
	ErrNoCalendar      = errors.New("calendar not found")
	ErrNoMatchingEvent = errors.New("no matching calendar event")
)

type Store struct {
	dir    string
	prodID string
	loc    *time.Location
	mu     sync.Mutex
	now    func() time.Time
	logger *zerolog.Logger
}

func NewStore(dir, prodID string, loc *time.Location, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create calendar directory: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Store{dir: dir, prodID: prodID, loc: loc, now: time.Now, logger: logger}, nil
}

func (s *Store) path(userID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.ics", userID))
}

// AddCalendarEvent adds the appointment to its customer's calendar.
func (s *Store) AddCalendarEvent(_ context.Context, appt *models.Appointment) error {
	start, err := timeparse.ComposeAppointmentDateTime(appt.Date, appt.Time24, s.loc)
	if err != nil {
		return fmt.Errorf("appointment %d time: %w", appt.ID, err)
	}
	duration := time.Duration(appt.Duration) * time.Minute
	if duration <= 0 {
		duration = models.DefaultServiceDuration * time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.load(appt.CustomerID)
	if errors.Is(err, ErrNoCalendar) {
		cal = s.newCalendar()
	} else if err != nil {
		return err
	}

	event := cal.AddEvent(eventUID(appt))
	event.SetDtStampTime(s.now())
	event.SetStartAt(start)
	event.SetEndAt(start.Add(duration))
	event.SetSummary(Summary(appt))
	event.SetDescription(fmt.Sprintf("Price: %d.%02d", appt.ServicePrice/100, appt.ServicePrice%100))

	return s.save(appt.CustomerID, cal)
}

// RemoveCalendarEvent drops the event of the appointment, found by its UID.
// Events without a barberbook UID fall back to a heuristic match: same day
// and a summary naming both the service and the provider.
func (s *Store) RemoveCalendarEvent(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.load(appt.CustomerID)
	if err != nil {
		return err
	}

	uid := eventUID(appt)
	match := func(e *ics.VEvent) bool { return e.Id() == uid }
	if !slices.ContainsFunc(cal.Events(), match) {
		match = func(e *ics.VEvent) bool { return !isOwnEvent(e) && s.matches(e, appt) }
	}

	kept := cal.Components[:0]
	removed := 0
	for _, c := range cal.Components {
		if event, ok := c.(*ics.VEvent); ok && match(event) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	if removed == 0 {
		return fmt.Errorf("appointment %d: %w", appt.ID, ErrNoMatchingEvent)
	}
	cal.Components = kept

	s.logger.Debug().Int64("appointment_id", appt.ID).Int("removed", removed).Msg("calendar events removed")
	return s.save(appt.CustomerID, cal)
}

// Export returns the serialized calendar of a customer.
func (s *Store) Export(userID int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	return []byte(cal.Serialize()), nil
}

func eventUID(appt *models.Appointment) string {
	return fmt.Sprintf("appointment-%d%s", appt.ID, uidSuffix)
}

func isOwnEvent(e *ics.VEvent) bool {
	return strings.HasPrefix(e.Id(), "appointment-") && strings.HasSuffix(e.Id(), uidSuffix)
}

// Summary is the event title for an appointment.
func Summary(appt *models.Appointment) string {
	return fmt.Sprintf("%s with %s", appt.ServiceName, appt.ProviderName)
}

func (s *Store) matches(event *ics.VEvent, appt *models.Appointment) bool {
	prop := event.GetProperty(ics.ComponentPropertySummary)
	if prop == nil {
		return false
	}
	if !strings.Contains(prop.Value, appt.ServiceName) || !strings.Contains(prop.Value, appt.ProviderName) {
		return false
	}
	start, err := event.GetStartAt()
	if err != nil {
		return false
	}
	return timeparse.DateOf(start.In(s.loc)).String() == appt.Date
}

func (s *Store) newCalendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	if s.prodID != "" {
		cal.SetProductId(s.prodID)
	}
	return cal
}

func (s *Store) load(userID int64) (*ics.Calendar, error) {
	data, err := os.ReadFile(s.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCalendar
	}
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}
	return cal, nil
}

// save writes through a temp file so a crash never leaves half a calendar.
func (s *Store) save(userID int64, cal *ics.Calendar) error {
	path := s.path(userID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace calendar: %w", err)
	}
	return nil
}
