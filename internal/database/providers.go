package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"barberbook/internal/models"
)

// SyncProviders upserts the catalogue and replaces each provider's services
// and explicit slots. Providers missing from the catalogue are deactivated.
func (db *DB) SyncProviders(ctx context.Context, providers []models.Provider) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE providers SET is_active = 0, updated_at = ?`, now); err != nil {
		return fmt.Errorf("failed to reset providers: %w", err)
	}

	upsert := `INSERT INTO providers (
				id, name, address, locality_key, availability, work_days,
				start_time, end_time, interval_minutes, is_active, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				address = excluded.address,
				locality_key = excluded.locality_key,
				availability = excluded.availability,
				work_days = excluded.work_days,
				start_time = excluded.start_time,
				end_time = excluded.end_time,
				interval_minutes = excluded.interval_minutes,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at`

	for _, p := range providers {
		days, err := json.Marshal(p.Hours.Days)
		if err != nil {
			return fmt.Errorf("failed to encode work days for provider %d: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, upsert,
			p.ID, p.Name, p.Address, p.LocalityKey, p.Availability, string(days),
			p.Hours.Start, p.Hours.End, p.Hours.Interval, p.IsActive, now,
		); err != nil {
			return fmt.Errorf("failed to upsert provider %d: %w", p.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM services WHERE provider_id = ?`, p.ID); err != nil {
			return fmt.Errorf("failed to clear services for provider %d: %w", p.ID, err)
		}
		for i, s := range p.Services {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO services (id, provider_id, name, price, duration, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
				s.ID, p.ID, s.Name, s.Price, s.Duration, i,
			); err != nil {
				return fmt.Errorf("failed to insert service %d: %w", s.ID, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM availability_slots WHERE provider_id = ?`, p.ID); err != nil {
			return fmt.Errorf("failed to clear slots for provider %d: %w", p.ID, err)
		}
		for _, slot := range p.Slots {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO availability_slots (provider_id, date, time) VALUES (?, ?, ?)`,
				p.ID, slot.Date, slot.Time,
			); err != nil {
				return fmt.Errorf("failed to insert slot for provider %d: %w", p.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit providers: %w", err)
	}
	db.logger.Info().Int("providers", len(providers)).Msg("provider catalogue synced")
	return nil
}

const providerColumns = `id, name, address, locality_key, availability, work_days,
	start_time, end_time, interval_minutes, is_active`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProvider(row rowScanner) (models.Provider, error) {
	var p models.Provider
	var days string
	if err := row.Scan(
		&p.ID, &p.Name, &p.Address, &p.LocalityKey, &p.Availability, &days,
		&p.Hours.Start, &p.Hours.End, &p.Hours.Interval, &p.IsActive,
	); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(days), &p.Hours.Days); err != nil {
		return p, fmt.Errorf("failed to decode work days for provider %d: %w", p.ID, err)
	}
	return p, nil
}

// ProvidersByLocality lists active providers in a locality. An empty key
// lists every active provider.
func (db *DB) ProvidersByLocality(ctx context.Context, localityKey string) ([]models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers
              WHERE is_active = 1 AND (? = '' OR locality_key = ?)
              ORDER BY name, id`
	rows, err := db.QueryContext(ctx, query, localityKey, localityKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var providers []models.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (db *DB) GetProvider(ctx context.Context, providerID int64) (*models.Provider, error) {
	row := db.QueryRowContext(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = ?`, providerID)
	p, err := scanProvider(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &p, nil
}

func (db *DB) ServicesForProvider(ctx context.Context, providerID int64) ([]models.Service, error) {
	query := `SELECT id, provider_id, name, price, duration FROM services
              WHERE provider_id = ? ORDER BY sort_order, id`
	rows, err := db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.ProviderID, &s.Name, &s.Price, &s.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// ProviderAvailability returns the provider's stored slots as written.
func (db *DB) ProviderAvailability(ctx context.Context, providerID int64) ([]models.AvailabilitySlot, error) {
	query := `SELECT date, time FROM availability_slots WHERE provider_id = ? ORDER BY date, time`
	rows, err := db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	defer rows.Close()

	var slots []models.AvailabilitySlot
	for rows.Next() {
		var s models.AvailabilitySlot
		if err := rows.Scan(&s.Date, &s.Time); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
