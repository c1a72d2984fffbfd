package service

import (
	"context"
	"errors"
	"strings"

	"barberbook/internal/domain"
	"barberbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

var ErrEmptyLocality = errors.New("locality key is empty")

type UserService struct {
	repo   domain.ProfileStore
	logger *zerolog.Logger
}

func NewUserService(repo domain.ProfileStore, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// SaveTelegramUser upserts the profile fields Telegram provides.
func (s *UserService) SaveTelegramUser(ctx context.Context, from *tgbotapi.User) error {
	if from == nil {
		return nil
	}
	user := &models.User{
		TelegramID:   from.ID,
		Username:     from.UserName,
		DisplayName:  DisplayName(from),
		LanguageCode: from.LanguageCode,
	}
	if err := s.repo.CreateOrUpdateUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", from.ID).Msg("failed to save user")
		return err
	}
	return nil
}

// SetLocality normalizes and stores the user's locality key.
func (s *UserService) SetLocality(ctx context.Context, telegramID int64, raw string) (string, error) {
	key := strings.ToLower(strings.Join(strings.Fields(raw), "-"))
	if key == "" {
		return "", ErrEmptyLocality
	}
	if err := s.repo.UpdateUserLocality(ctx, telegramID, key); err != nil {
		return "", err
	}
	return key, nil
}

func (s *UserService) UpdateUserActivity(ctx context.Context, telegramID int64) error {
	return s.repo.UpdateUserActivity(ctx, telegramID)
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// DisplayName prefers the full name over the username.
func DisplayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return ""
}
