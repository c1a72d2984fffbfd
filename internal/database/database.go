package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"barberbook/internal/domain"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound         = domain.ErrNotFound
	ErrSlotTaken        = domain.ErrSlotTaken
	ErrAlreadyCancelled = domain.ErrAlreadyCancelled
)

type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite допускает одного писателя; :memory: живет в одном соединении
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: sqlDB, path: path, logger: logger}, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            telegram_id INTEGER UNIQUE NOT NULL,
            username TEXT NOT NULL DEFAULT '',
            display_name TEXT NOT NULL DEFAULT '',
            locality_key TEXT NOT NULL DEFAULT '',
            language_code TEXT NOT NULL DEFAULT '',
            last_activity DATETIME NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS providers (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            address TEXT NOT NULL DEFAULT '',
            locality_key TEXT NOT NULL DEFAULT '',
            availability TEXT NOT NULL DEFAULT 'template',
            work_days TEXT NOT NULL DEFAULT '[]',
            start_time TEXT NOT NULL DEFAULT '',
            end_time TEXT NOT NULL DEFAULT '',
            interval_minutes INTEGER NOT NULL DEFAULT 30,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS services (
            id INTEGER PRIMARY KEY,
            provider_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            price INTEGER NOT NULL,
            duration INTEGER NOT NULL,
            sort_order INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS availability_slots (
            provider_id INTEGER NOT NULL,
            date TEXT NOT NULL,
            time TEXT NOT NULL,
            PRIMARY KEY (provider_id, date, time)
        )`,
		`CREATE TABLE IF NOT EXISTS appointments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            customer_id INTEGER NOT NULL,
            customer_name TEXT NOT NULL DEFAULT '',
            provider_id INTEGER NOT NULL,
            provider_name TEXT NOT NULL,
            service_name TEXT NOT NULL,
            service_price INTEGER NOT NULL,
            duration INTEGER NOT NULL,
            date TEXT NOT NULL,
            time TEXT NOT NULL,
            time24 TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'booked',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            cancelled_by INTEGER NOT NULL DEFAULT 0,
            cancelled_at DATETIME
        )`,
		`CREATE TABLE IF NOT EXISTS reminders (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            appointment_id INTEGER NOT NULL,
            user_id INTEGER NOT NULL,
            message TEXT NOT NULL,
            fire_at DATETIME NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            next_attempt_at DATETIME NOT NULL,
            created_at DATETIME NOT NULL,
            sent_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_providers_locality ON providers(locality_key, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_services_provider ON services(provider_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_customer ON appointments(customer_id, created_at)`,
		// Один активный визит на слот мастера
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_slot
            ON appointments(provider_id, date, time24) WHERE status = 'booked'`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(status, next_attempt_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_appointment ON reminders(appointment_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
