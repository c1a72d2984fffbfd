package repository

import (
	"context"
	"sync/atomic"
	"time"

	"barberbook/internal/domain"
	"barberbook/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStateRepository serves from primary until it errors, then from
// fallback, probing primary again once per recoveryInterval.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanoseconds
	now       func() time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverStateRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverStateRepository) markDown(err error, op string) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Str("op", op).Msg("primary state repository failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

func (r *FailoverStateRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("primary state repository recovered")
	}
}

func (r *FailoverStateRepository) GetSession(ctx context.Context, userID int64) (*models.SessionSnapshot, error) {
	if r.usePrimary() {
		snap, err := r.primary.GetSession(ctx, userID)
		if err == nil {
			r.markUp()
			return snap, nil
		}
		r.markDown(err, "get")
	}
	return r.fallback.GetSession(ctx, userID)
}

func (r *FailoverStateRepository) SetSession(ctx context.Context, snap *models.SessionSnapshot) error {
	if r.usePrimary() {
		err := r.primary.SetSession(ctx, snap)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err, "set")
	}
	return r.fallback.SetSession(ctx, snap)
}

func (r *FailoverStateRepository) ClearSession(ctx context.Context, userID int64) error {
	if r.usePrimary() {
		err := r.primary.ClearSession(ctx, userID)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err, "clear")
	}
	return r.fallback.ClearSession(ctx, userID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err, "rate_limit")
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
