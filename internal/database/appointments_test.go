package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"barberbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAppointment(customer int64, date, time24 string) *models.Appointment {
	return &models.Appointment{
		CustomerID:   customer,
		CustomerName: "Customer",
		ProviderID:   1,
		ProviderName: "Sam",
		ServiceName:  "Haircut",
		ServicePrice: 2500,
		Duration:     30,
		Date:         date,
		Time:         "9:00 AM",
		Time24:       time24,
	}
}

func TestCreateAppointment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	appt := newAppointment(5, "2025-06-20", "09:00")
	require.NoError(t, db.CreateAppointment(ctx, appt))
	assert.NotZero(t, appt.ID)
	assert.Equal(t, models.StatusBooked, appt.Status)
	assert.False(t, appt.CreatedAt.IsZero())

	got, err := db.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", got.ProviderName)
	assert.Equal(t, "09:00", got.Time24)
	assert.Nil(t, got.CancelledAt)

	err = db.CreateAppointment(ctx, newAppointment(6, "2025-06-20", "09:00"))
	assert.ErrorIs(t, err, ErrSlotTaken)

	_, err = db.GetAppointment(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAppointment_SlotFreedByCancel(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := newAppointment(5, "2025-06-20", "09:00")
	require.NoError(t, db.CreateAppointment(ctx, first))
	require.NoError(t, db.CancelAppointment(ctx, first.ID, 5))

	second := newAppointment(6, "2025-06-20", "09:00")
	require.NoError(t, db.CreateAppointment(ctx, second))

	held, err := db.BookedSlots(ctx, 1, "2025-06-20", "2025-06-20")
	require.NoError(t, err)
	assert.Equal(t, []models.AvailabilitySlot{{Date: "2025-06-20", Time: "09:00"}}, held)
}

func TestCreateAppointment_Concurrent(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "concurrency.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			results <- db.CreateAppointment(ctx, newAppointment(id, "2025-06-20", "10:00"))
		}(int64(i + 1))
	}
	wg.Wait()
	close(results)

	ok, taken := 0, 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrSlotTaken)
		taken++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, taken)
}

func TestCancelAppointment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	appt := newAppointment(5, "2025-06-20", "09:00")
	require.NoError(t, db.CreateAppointment(ctx, appt))

	require.NoError(t, db.CancelAppointment(ctx, appt.ID, 5))
	got, err := db.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, int64(5), got.CancelledBy)
	require.NotNil(t, got.CancelledAt)

	assert.ErrorIs(t, db.CancelAppointment(ctx, appt.ID, 5), ErrAlreadyCancelled)
	assert.ErrorIs(t, db.CancelAppointment(ctx, 12345, 5), ErrNotFound)
}

func TestRecentAndMostRecentAppointments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	none, err := db.MostRecentAppointment(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, none)

	var ids []int64
	for _, tm := range []string{"09:00", "10:00", "11:00", "12:00"} {
		a := newAppointment(5, "2025-06-20", tm)
		require.NoError(t, db.CreateAppointment(ctx, a))
		ids = append(ids, a.ID)
	}
	require.NoError(t, db.CreateAppointment(ctx, newAppointment(6, "2025-06-21", "09:00")))

	recent, err := db.RecentAppointments(ctx, 5, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, ids[3], recent[0].ID)
	assert.Equal(t, ids[2], recent[1].ID)
	assert.Equal(t, ids[1], recent[2].ID)

	require.NoError(t, db.CancelAppointment(ctx, ids[3], 5))

	recent, err = db.RecentAppointments(ctx, 5, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, ids[2], recent[0].ID)

	last, err := db.MostRecentAppointment(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, ids[3], last.ID)
	assert.Equal(t, models.StatusCancelled, last.Status)

	all, err := db.UserAppointments(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
