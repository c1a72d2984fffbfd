package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barberbook/internal/models"
)

const appointmentColumns = `id, customer_id, customer_name, provider_id, provider_name,
	service_name, service_price, duration, date, time, time24, status,
	created_at, updated_at, cancelled_by, cancelled_at`

func scanAppointment(row rowScanner) (models.Appointment, error) {
	var a models.Appointment
	err := row.Scan(
		&a.ID, &a.CustomerID, &a.CustomerName, &a.ProviderID, &a.ProviderName,
		&a.ServiceName, &a.ServicePrice, &a.Duration, &a.Date, &a.Time, &a.Time24, &a.Status,
		&a.CreatedAt, &a.UpdatedAt, &a.CancelledBy, &a.CancelledAt,
	)
	return a, err
}

// CreateAppointment re-checks the slot inside the transaction before the
// insert. A held slot yields ErrSlotTaken.
func (db *DB) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var held int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE provider_id = ? AND date = ? AND time24 = ? AND status = ?`,
		appt.ProviderID, appt.Date, appt.Time24, models.StatusBooked,
	).Scan(&held)
	if err != nil {
		return fmt.Errorf("failed to check slot in tx: %w", err)
	}
	if held > 0 {
		return ErrSlotTaken
	}

	if appt.Status == "" {
		appt.Status = models.StatusBooked
	}
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `INSERT INTO appointments (
				customer_id, customer_name, provider_id, provider_name, service_name,
				service_price, duration, date, time, time24, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.CustomerID,
		appt.CustomerName,
		appt.ProviderID,
		appt.ProviderName,
		appt.ServiceName,
		appt.ServicePrice,
		appt.Duration,
		appt.Date,
		appt.Time,
		appt.Time24,
		appt.Status,
		now,
		now,
	)
	if isUniqueViolation(err) {
		return ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert appointment in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to commit appointment: %w", err)
	}

	appt.ID = id
	appt.CreatedAt = now
	appt.UpdatedAt = now
	return nil
}

func (db *DB) GetAppointment(ctx context.Context, appointmentID int64) (*models.Appointment, error) {
	row := db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, appointmentID)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &a, nil
}

// CancelAppointment marks a booked appointment cancelled. Rows are never deleted.
func (db *DB) CancelAppointment(ctx context.Context, appointmentID, actorUserID int64) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`UPDATE appointments SET status = ?, cancelled_by = ?, cancelled_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		models.StatusCancelled, actorUserID, now, now, appointmentID, models.StatusBooked,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}
	if rows > 0 {
		return nil
	}

	if _, err := db.GetAppointment(ctx, appointmentID); err != nil {
		return err
	}
	return ErrAlreadyCancelled
}

// RecentAppointments returns the user's booked appointments, newest first.
func (db *DB) RecentAppointments(ctx context.Context, userID int64, count int) ([]models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
              WHERE customer_id = ? AND status = ?
              ORDER BY created_at DESC, id DESC LIMIT ?`
	return db.queryAppointments(ctx, query, userID, models.StatusBooked, count)
}

// MostRecentAppointment returns the user's latest appointment of any status,
// or nil when there is none.
func (db *DB) MostRecentAppointment(ctx context.Context, userID int64) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
              WHERE customer_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`
	a, err := scanAppointment(db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get most recent appointment: %w", err)
	}
	return &a, nil
}

// UserAppointments lists every booked appointment of the user by date.
func (db *DB) UserAppointments(ctx context.Context, userID int64) ([]models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
              WHERE customer_id = ? AND status = ? ORDER BY date, time24`
	return db.queryAppointments(ctx, query, userID, models.StatusBooked)
}

// BookedSlots returns the slots held by booked appointments between two
// dates, inclusive. Times are in 24-hour form.
func (db *DB) BookedSlots(ctx context.Context, providerID int64, fromDate, toDate string) ([]models.AvailabilitySlot, error) {
	query := `SELECT date, time24 FROM appointments
              WHERE provider_id = ? AND status = ? AND date >= ? AND date <= ?
              ORDER BY date, time24`
	rows, err := db.QueryContext(ctx, query, providerID, models.StatusBooked, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get booked slots: %w", err)
	}
	defer rows.Close()

	var slots []models.AvailabilitySlot
	for rows.Next() {
		var s models.AvailabilitySlot
		if err := rows.Scan(&s.Date, &s.Time); err != nil {
			return nil, fmt.Errorf("failed to scan booked slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (db *DB) queryAppointments(ctx context.Context, query string, args ...interface{}) ([]models.Appointment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var out []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
