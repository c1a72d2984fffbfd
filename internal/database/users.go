package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barberbook/internal/models"
)

func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (
				telegram_id, username, display_name, language_code,
				last_activity, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(telegram_id) DO UPDATE SET
                username = excluded.username,
                display_name = excluded.display_name,
                language_code = excluded.language_code,
                last_activity = excluded.last_activity,
                updated_at = excluded.updated_at`
	now := time.Now().UTC()
	lastActivity := user.LastActivity
	if lastActivity.IsZero() {
		lastActivity = now
	}
	_, err := db.ExecContext(ctx, query,
		user.TelegramID,
		user.Username,
		user.DisplayName,
		user.LanguageCode,
		lastActivity,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `SELECT id, telegram_id, username, display_name, locality_key,
	                 language_code, last_activity, created_at, updated_at
              FROM users WHERE telegram_id = ?`
	var user models.User
	err := db.QueryRowContext(ctx, query, telegramID).Scan(
		&user.ID, &user.TelegramID, &user.Username, &user.DisplayName, &user.LocalityKey,
		&user.LanguageCode, &user.LastActivity, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetProfile returns an empty profile for users that never started the bot.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	user, err := db.GetUserByTelegramID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &models.Profile{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.Profile{
		UserID:      user.TelegramID,
		DisplayName: user.DisplayName,
		LocalityKey: user.LocalityKey,
	}, nil
}

func (db *DB) UpdateUserLocality(ctx context.Context, telegramID int64, localityKey string) error {
	query := `UPDATE users SET locality_key = ?, updated_at = ? WHERE telegram_id = ?`
	result, err := db.ExecContext(ctx, query, localityKey, time.Now().UTC(), telegramID)
	if err != nil {
		return fmt.Errorf("failed to update user locality: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateUserActivity(ctx context.Context, telegramID int64) error {
	now := time.Now().UTC()
	query := `UPDATE users SET last_activity = ?, updated_at = ? WHERE telegram_id = ?`
	_, err := db.ExecContext(ctx, query, now, now, telegramID)
	return err
}
