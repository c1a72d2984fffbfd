package service

import (
	"context"
	"time"

	"barberbook/internal/domain"
	"barberbook/internal/models"

	"github.com/rs/zerolog"
)

// StateService wraps the session repository with logging.
type StateService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
}

func NewStateService(stateRepo domain.StateRepository, logger *zerolog.Logger) *StateService {
	return &StateService{
		stateRepo: stateRepo,
		logger:    logger,
	}
}

func (s *StateService) GetSession(ctx context.Context, userID int64) (*models.SessionSnapshot, error) {
	snap, err := s.stateRepo.GetSession(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get session")
		return nil, err
	}
	return snap, nil
}

func (s *StateService) SetSession(ctx context.Context, snap *models.SessionSnapshot) error {
	snap.UpdatedAt = time.Now()
	if err := s.stateRepo.SetSession(ctx, snap); err != nil {
		s.logger.Error().Err(err).Int64("user_id", snap.UserID).Str("step", snap.Step).Msg("failed to save session")
		return err
	}
	return nil
}

func (s *StateService) ClearSession(ctx context.Context, userID int64) error {
	return s.stateRepo.ClearSession(ctx, userID)
}

func (s *StateService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	allowed, err := s.stateRepo.CheckRateLimit(ctx, userID, limit, window)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("rate limit check failed")
		return true, err
	}
	return allowed, nil
}
