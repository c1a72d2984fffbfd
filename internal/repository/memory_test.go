package repository

import (
	"context"
	"testing"
	"time"

	"barberbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	now := time.Date(2025, time.June, 20, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("SetAndGetSession", func(t *testing.T) {
		snap := &models.SessionSnapshot{UserID: 123, Step: "choose_provider", Generation: 2}
		require.NoError(t, repo.SetSession(ctx, snap))

		got, err := repo.GetSession(ctx, 123)
		require.NoError(t, err)
		assert.Equal(t, snap, got)

		got.Step = "mutated"
		again, err := repo.GetSession(ctx, 123)
		require.NoError(t, err)
		assert.Equal(t, "choose_provider", again.Step)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, repo.SetSession(ctx, &models.SessionSnapshot{UserID: 5}))
		now = now.Add(2 * time.Hour)
		got, err := repo.GetSession(ctx, 5)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearSession", func(t *testing.T) {
		require.NoError(t, repo.SetSession(ctx, &models.SessionSnapshot{UserID: 123}))
		require.NoError(t, repo.ClearSession(ctx, 123))
		got, err := repo.GetSession(ctx, 123)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		userID := int64(456)
		allowed, _ := repo.CheckRateLimit(ctx, userID, 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, userID, 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, userID, 2, time.Second)
		assert.False(t, allowed)

		now = now.Add(time.Second + time.Millisecond)
		allowed, _ = repo.CheckRateLimit(ctx, userID, 2, time.Second)
		assert.True(t, allowed)
	})
}
