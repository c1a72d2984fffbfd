package chat

import (
	"encoding/json"
	"testing"

	"barberbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestore_EveryState(t *testing.T) {
	provider := sam()
	service := models.Service{ID: 10, ProviderID: 1, Name: "Haircut", Price: 2500, Duration: 30}
	slot := models.AvailabilitySlot{Date: "2025-06-20", Time: "9:00 AM"}
	appt := models.Appointment{ID: 3, CustomerID: userID, ProviderID: 1, ServiceName: "Haircut", Date: "2025-06-20", Time24: "09:00"}

	states := []State{
		Idle{},
		ChooseProvider{Providers: []models.Provider{provider}},
		ChooseService{Provider: provider, Services: []models.Service{service}},
		ChooseDateTime{Provider: provider, Service: service},
		ConfirmBooking{Provider: provider, Service: service, Slot: slot},
		CancelList{Appointments: []models.Appointment{appt}},
		CancelConfirm{Appointment: appt},
		RepeatDateTime{Previous: appt},
	}

	for _, st := range states {
		t.Run(st.Step(), func(t *testing.T) {
			raw, err := json.Marshal(Snapshot(userID, 4, st))
			require.NoError(t, err)

			var snap models.SessionSnapshot
			require.NoError(t, json.Unmarshal(raw, &snap))
			assert.Equal(t, int64(4), snap.Generation)

			got, err := Restore(&snap)
			require.NoError(t, err)
			assert.Equal(t, st, got)
			assert.Equal(t, st.Mode(), got.Mode())
		})
	}
}

func TestRestore_NilIsIdle(t *testing.T) {
	st, err := Restore(nil)
	require.NoError(t, err)
	assert.Equal(t, Idle{}, st)
}

func TestRestore_RejectsIncompleteOrUnknown(t *testing.T) {
	_, err := Restore(&models.SessionSnapshot{Step: StepConfirmBooking, Provider: &models.Provider{ID: 1}})
	assert.Error(t, err)

	_, err = Restore(&models.SessionSnapshot{Step: "teleport"})
	assert.Error(t, err)
}

func TestModes(t *testing.T) {
	assert.Equal(t, ModeNew, ChooseDateTime{}.Mode())
	assert.Equal(t, ModeCancel, CancelConfirm{}.Mode())
	assert.Equal(t, ModeRepeat, RepeatDateTime{}.Mode())
	assert.Equal(t, ModeIdle, Idle{}.Mode())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "slot_unavailable", KindSlotUnavailable.String())
	assert.Equal(t, "unknown", Kind(999).String())
	assert.True(t, KindOutOfRangeSelection.Recoverable())
	assert.False(t, KindNoPriorAppointment.Recoverable())
	assert.False(t, KindBooked.Recoverable())
}

func TestParseChoice(t *testing.T) {
	i, ok := parseChoice(" 2 ", 3)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	for _, in := range []string{"0", "4", "-1", "two", ""} {
		_, ok := parseChoice(in, 3)
		assert.False(t, ok, in)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "25.00", formatPrice(2500))
	assert.Equal(t, "0.05", formatPrice(5))
	assert.Equal(t, "-1.50", formatPrice(-150))
}
