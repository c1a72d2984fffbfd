package chat

import (
	"context"
	"sync"
	"time"

	"barberbook/internal/domain"
	"barberbook/internal/models"
)

type fakeProfiles struct {
	profiles map[int64]*models.Profile
	err      error
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID int64) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return &models.Profile{UserID: userID}, nil
}

type fakeDirectory struct {
	providers  []models.Provider
	services   map[int64][]models.Service
	slots      map[int64][]models.AvailabilitySlot
	localities []string
	err        error
	onServices func()
}

func (f *fakeDirectory) ProvidersByLocality(_ context.Context, localityKey string) ([]models.Provider, error) {
	f.localities = append(f.localities, localityKey)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Provider
	for _, p := range f.providers {
		if localityKey == "" || p.LocalityKey == localityKey {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeDirectory) GetProvider(_ context.Context, providerID int64) (*models.Provider, error) {
	for _, p := range f.providers {
		if p.ID == providerID {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDirectory) ServicesForProvider(_ context.Context, providerID int64) ([]models.Service, error) {
	if f.onServices != nil {
		f.onServices()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.services[providerID], nil
}

func (f *fakeDirectory) ProviderAvailability(_ context.Context, providerID int64) ([]models.AvailabilitySlot, error) {
	return append([]models.AvailabilitySlot(nil), f.slots[providerID]...), nil
}

type fakeAppointments struct {
	mu        sync.Mutex
	items     []models.Appointment
	nextID    int64
	creates   int
	cancels   []int64
	createErr error
	cancelErr error
}

func (f *fakeAppointments) add(a models.Appointment) models.Appointment {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	if a.Status == "" {
		a.Status = models.StatusBooked
	}
	f.items = append(f.items, a)
	return a
}

func (f *fakeAppointments) CreateAppointment(_ context.Context, appt *models.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	for _, a := range f.items {
		if a.IsBooked() && a.ProviderID == appt.ProviderID && a.Date == appt.Date && a.Time24 == appt.Time24 {
			return domain.ErrSlotTaken
		}
	}
	f.nextID++
	appt.ID = f.nextID
	appt.CreatedAt = time.Now()
	f.items = append(f.items, *appt)
	return nil
}

func (f *fakeAppointments) CancelAppointment(_ context.Context, appointmentID, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, appointmentID)
	if f.cancelErr != nil {
		return f.cancelErr
	}
	for i := range f.items {
		if f.items[i].ID != appointmentID {
			continue
		}
		if !f.items[i].IsBooked() {
			return domain.ErrAlreadyCancelled
		}
		f.items[i].Status = models.StatusCancelled
		return nil
	}
	return domain.ErrNotFound
}

func (f *fakeAppointments) GetAppointment(_ context.Context, appointmentID int64) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.items {
		if a.ID == appointmentID {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAppointments) RecentAppointments(_ context.Context, userID int64, count int) ([]models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Appointment
	for i := len(f.items) - 1; i >= 0 && len(out) < count; i-- {
		if f.items[i].CustomerID == userID && f.items[i].IsBooked() {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

func (f *fakeAppointments) MostRecentAppointment(_ context.Context, userID int64) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].CustomerID == userID {
			a := f.items[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeAppointments) BookedSlots(_ context.Context, providerID int64, fromDate, toDate string) ([]models.AvailabilitySlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AvailabilitySlot
	for _, a := range f.items {
		if a.IsBooked() && a.ProviderID == providerID && a.Date >= fromDate && a.Date <= toDate {
			out = append(out, models.AvailabilitySlot{Date: a.Date, Time: a.Time24})
		}
	}
	return out, nil
}

func (f *fakeAppointments) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

type fakeReminders struct {
	scheduled   []int64
	cancelled   []int64
	scheduleErr error
	cancelErr   error
}

func (f *fakeReminders) ScheduleReminder(_ context.Context, appt *models.Appointment, _ int64) error {
	f.scheduled = append(f.scheduled, appt.ID)
	return f.scheduleErr
}

func (f *fakeReminders) CancelReminders(_ context.Context, appointmentID, _ int64) error {
	f.cancelled = append(f.cancelled, appointmentID)
	return f.cancelErr
}

type fakeCalendar struct {
	added     []int64
	removed   []int64
	addErr    error
	removeErr error
}

func (f *fakeCalendar) AddCalendarEvent(_ context.Context, appt *models.Appointment) error {
	f.added = append(f.added, appt.ID)
	return f.addErr
}

func (f *fakeCalendar) RemoveCalendarEvent(_ context.Context, appt *models.Appointment) error {
	f.removed = append(f.removed, appt.ID)
	return f.removeErr
}

type fakeSuggester struct {
	result *models.Suggestion
	err    error
	calls  int
	hook   func()
}

func (f *fakeSuggester) Suggest(_ context.Context, _ string, _ []models.AvailabilitySlot) (*models.Suggestion, error) {
	f.calls++
	if f.hook != nil {
		f.hook()
	}
	return f.result, f.err
}

type fakePayments struct {
	url string
	err error
}

func (f *fakePayments) CheckoutURL(_ context.Context, _ *models.Appointment) (string, error) {
	return f.url, f.err
}

type fakeRecorder struct {
	mu      sync.Mutex
	replies map[string]int
	booked  int
	failed  map[string]int
	stale   int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{replies: map[string]int{}, failed: map[string]int{}}
}

func (f *fakeRecorder) ReplySent(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[kind]++
}

func (f *fakeRecorder) AppointmentBooked() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.booked++
}

func (f *fakeRecorder) AppointmentCancelled() {}

func (f *fakeRecorder) SideEffectFailed(effect string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[effect]++
}

func (f *fakeRecorder) StaleDiscarded() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stale++
}
