package chat

import (
	"fmt"

	"barberbook/internal/models"
)

// Mode is the top-level flow a session is in.
type Mode string

const (
	ModeIdle   Mode = "idle"
	ModeNew    Mode = "new"
	ModeRepeat Mode = "repeat"
	ModeCancel Mode = "cancel"
)

const (
	StepIdle           = "idle"
	StepChooseProvider = "choose_provider"
	StepChooseService  = "choose_service"
	StepChooseDateTime = "choose_date_time"
	StepConfirmBooking = "confirm_booking"
	StepCancelList     = "cancel_list"
	StepCancelConfirm  = "cancel_confirm"
	StepRepeatDateTime = "repeat_date_time"
)

// State is one (mode, step) of a conversation. Each variant carries only
// the data valid for it, so a service can't be chosen before a provider.
type State interface {
	Step() string
	Mode() Mode
}

type Idle struct{}

type ChooseProvider struct {
	Providers []models.Provider
}

type ChooseService struct {
	Provider models.Provider
	Services []models.Service
}

type ChooseDateTime struct {
	Provider models.Provider
	Service  models.Service
}

type ConfirmBooking struct {
	Provider models.Provider
	Service  models.Service
	Slot     models.AvailabilitySlot
}

type CancelList struct {
	Appointments []models.Appointment
}

type CancelConfirm struct {
	Appointment models.Appointment
}

// RepeatDateTime waits for a new day and time for a previous appointment.
type RepeatDateTime struct {
	Previous models.Appointment
}

func (Idle) Step() string           { return StepIdle }
func (ChooseProvider) Step() string { return StepChooseProvider }
func (ChooseService) Step() string  { return StepChooseService }
func (ChooseDateTime) Step() string { return StepChooseDateTime }
func (ConfirmBooking) Step() string { return StepConfirmBooking }
func (CancelList) Step() string     { return StepCancelList }
func (CancelConfirm) Step() string  { return StepCancelConfirm }
func (RepeatDateTime) Step() string { return StepRepeatDateTime }

func (Idle) Mode() Mode           { return ModeIdle }
func (ChooseProvider) Mode() Mode { return ModeNew }
func (ChooseService) Mode() Mode  { return ModeNew }
func (ChooseDateTime) Mode() Mode { return ModeNew }
func (ConfirmBooking) Mode() Mode { return ModeNew }
func (CancelList) Mode() Mode     { return ModeCancel }
func (CancelConfirm) Mode() Mode  { return ModeCancel }
func (RepeatDateTime) Mode() Mode { return ModeRepeat }

// Snapshot encodes a state for the session store.
func Snapshot(userID, generation int64, st State) *models.SessionSnapshot {
	snap := &models.SessionSnapshot{
		UserID:     userID,
		Generation: generation,
		Step:       st.Step(),
	}
	switch s := st.(type) {
	case ChooseProvider:
		snap.Providers = s.Providers
	case ChooseService:
		snap.Provider = &s.Provider
		snap.Services = s.Services
	case ChooseDateTime:
		snap.Provider = &s.Provider
		snap.Service = &s.Service
	case ConfirmBooking:
		snap.Provider = &s.Provider
		snap.Service = &s.Service
		snap.Slot = &s.Slot
	case CancelList:
		snap.Appointments = s.Appointments
	case CancelConfirm:
		snap.Appointment = &s.Appointment
	case RepeatDateTime:
		snap.Appointment = &s.Previous
	}
	return snap
}

// Restore decodes a stored snapshot. A nil snapshot is Idle.
func Restore(snap *models.SessionSnapshot) (State, error) {
	if snap == nil {
		return Idle{}, nil
	}
	switch snap.Step {
	case StepIdle, "":
		return Idle{}, nil
	case StepChooseProvider:
		if len(snap.Providers) == 0 {
			return nil, incomplete(snap)
		}
		return ChooseProvider{Providers: snap.Providers}, nil
	case StepChooseService:
		if snap.Provider == nil || len(snap.Services) == 0 {
			return nil, incomplete(snap)
		}
		return ChooseService{Provider: *snap.Provider, Services: snap.Services}, nil
	case StepChooseDateTime:
		if snap.Provider == nil || snap.Service == nil {
			return nil, incomplete(snap)
		}
		return ChooseDateTime{Provider: *snap.Provider, Service: *snap.Service}, nil
	case StepConfirmBooking:
		if snap.Provider == nil || snap.Service == nil || snap.Slot == nil {
			return nil, incomplete(snap)
		}
		return ConfirmBooking{Provider: *snap.Provider, Service: *snap.Service, Slot: *snap.Slot}, nil
	case StepCancelList:
		if len(snap.Appointments) == 0 {
			return nil, incomplete(snap)
		}
		return CancelList{Appointments: snap.Appointments}, nil
	case StepCancelConfirm:
		if snap.Appointment == nil {
			return nil, incomplete(snap)
		}
		return CancelConfirm{Appointment: *snap.Appointment}, nil
	case StepRepeatDateTime:
		if snap.Appointment == nil {
			return nil, incomplete(snap)
		}
		return RepeatDateTime{Previous: *snap.Appointment}, nil
	default:
		return nil, fmt.Errorf("unknown session step %q", snap.Step)
	}
}

func incomplete(snap *models.SessionSnapshot) error {
	return fmt.Errorf("session step %q is missing its data", snap.Step)
}
