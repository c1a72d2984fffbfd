package database

import (
	"context"
	"fmt"
	"time"

	"barberbook/internal/models"
)

func (db *DB) CreateReminder(ctx context.Context, r *models.Reminder) error {
	query := `INSERT INTO reminders (appointment_id, user_id, message, fire_at, status, retry_count, next_attempt_at, created_at)
              VALUES (?, ?, ?, ?, ?, 0, ?, ?)`
	now := time.Now().UTC()
	fireAt := r.FireAt.UTC().Truncate(time.Second)
	if r.Status == "" {
		r.Status = models.ReminderPending
	}
	result, err := db.ExecContext(ctx, query, r.AppointmentID, r.UserID, r.Message, fireAt, r.Status, fireAt, now)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.FireAt = fireAt
	r.CreatedAt = now
	return nil
}

// CancelReminders cancels the pending reminders of one appointment and
// returns how many were cancelled.
func (db *DB) CancelReminders(ctx context.Context, appointmentID, userID int64) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE reminders SET status = ? WHERE appointment_id = ? AND user_id = ? AND status = ?`,
		models.ReminderCancelled, appointmentID, userID, models.ReminderPending,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel reminders: %w", err)
	}
	return result.RowsAffected()
}

// DueReminders returns pending reminders whose next attempt is not after now.
func (db *DB) DueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	query := `SELECT id, appointment_id, user_id, message, fire_at, status, retry_count, last_error, created_at, sent_at
              FROM reminders
              WHERE status = ? AND next_attempt_at <= ?
              ORDER BY next_attempt_at ASC, id ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, models.ReminderPending, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due reminders: %w", err)
	}
	defer rows.Close()

	var out []models.Reminder
	for rows.Next() {
		var r models.Reminder
		if err := rows.Scan(
			&r.ID, &r.AppointmentID, &r.UserID, &r.Message, &r.FireAt, &r.Status,
			&r.RetryCount, &r.LastError, &r.CreatedAt, &r.SentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *DB) MarkReminderSent(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `UPDATE reminders SET status = ?, sent_at = ? WHERE id = ?`,
		models.ReminderSent, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

// MarkReminderRetry records a failed delivery and postpones the next attempt.
func (db *DB) MarkReminderRetry(ctx context.Context, id int64, errMsg string, nextAttempt time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE reminders SET last_error = ?, next_attempt_at = ?, retry_count = retry_count + 1 WHERE id = ?`,
		errMsg, nextAttempt.UTC().Truncate(time.Second), id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder retry: %w", err)
	}
	return nil
}

func (db *DB) MarkReminderFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE reminders SET status = ?, last_error = ?, retry_count = retry_count + 1 WHERE id = ?`,
		models.ReminderFailed, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder failed: %w", err)
	}
	return nil
}
