package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"barberbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("BARBERBOOK_TEST_TOKEN", "test_token")
	yamlContent := `
telegram:
  bot_token: "${BARBERBOOK_TEST_TOKEN}"
database:
  path: "test.db"
bot:
  timezone: "UTC"
  reminder_offsets: ["2h"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "test_token", cfg.Telegram.BotToken)
	assert.Equal(t, models.DefaultRecentAppointments, cfg.Bot.RecentAppointments)
	assert.Equal(t, models.DefaultAvailabilityDays, cfg.Bot.AvailabilityDays)
	assert.Equal(t, models.RateLimitMessages, cfg.Bot.RateLimitMessages)

	offsets, err := cfg.ReminderOffsets()
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Hour}, offsets)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
	assert.False(t, cfg.PaymentsEnabled())
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	assert.Equal(t, []string{"24h", "1h"}, cfg.Bot.ReminderOffsets)
	assert.Equal(t, models.DefaultSessionTTL, cfg.Bot.SessionTTL)
	assert.Equal(t, "usd", cfg.Payments.Currency)
	assert.NotEmpty(t, cfg.Calendar.Dir)
	assert.NotEmpty(t, cfg.LLM.Model)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			Telegram: TelegramConfig{BotToken: "token"},
			Database: DatabaseConfig{Path: "path"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "missing token", mutate: func(c *Config) { c.Telegram.BotToken = "" }, wantErr: true},
		{name: "placeholder token", mutate: func(c *Config) { c.Telegram.BotToken = "YOUR_BOT_TOKEN_HERE" }, wantErr: true},
		{name: "missing database", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Bot.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "bad reminder offset", mutate: func(c *Config) { c.Bot.ReminderOffsets = []string{"soon"} }, wantErr: true},
		{name: "negative reminder offset", mutate: func(c *Config) { c.Bot.ReminderOffsets = []string{"-1h"} }, wantErr: true},
		{name: "llm without key", mutate: func(c *Config) { c.LLM.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := `
providers:
  - id: 1
    name: "Sam's Cuts"
    locality_key: "downtown"
    is_active: true
    hours:
      days: [mon, tue, Friday]
      start: "9:00 AM"
      end: "17:00"
    services:
      - id: 10
        name: "Haircut"
        price: 2500
  - id: 2
    name: "Ali"
    locality_key: "downtown"
    availability: slots
    is_active: true
    slots:
      - {date: "2025-06-20", time: "9:00 AM"}
    services:
      - id: 20
        name: "Shave"
        price: 1500
        duration: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	providers, err := LoadProviders(path)
	require.NoError(t, err)
	require.Len(t, providers, 2)

	sam := providers[0]
	assert.Equal(t, models.AvailabilityTemplate, sam.Availability)
	assert.Equal(t, models.DefaultSlotInterval, sam.Hours.Interval)
	assert.True(t, sam.Hours.Days[time.Monday])
	assert.True(t, sam.Hours.Days[time.Friday])
	assert.False(t, sam.Hours.Days[time.Sunday])
	assert.Equal(t, int64(1), sam.Services[0].ProviderID)
	assert.Equal(t, models.DefaultServiceDuration, sam.Services[0].Duration)

	assert.Equal(t, models.AvailabilitySlots, providers[1].Availability)
	assert.Equal(t, 20, providers[1].Services[0].Duration)
}

func TestValidateProviders(t *testing.T) {
	hours := models.WorkingHours{Start: "9:00", End: "17:00"}
	tests := []struct {
		name      string
		providers []models.Provider
		wantErr   bool
	}{
		{"ok", []models.Provider{{ID: 1, Availability: models.AvailabilityTemplate, Hours: hours}}, false},
		{"zero id", []models.Provider{{ID: 0, Availability: models.AvailabilityTemplate, Hours: hours}}, true},
		{"duplicate id", []models.Provider{
			{ID: 1, Availability: models.AvailabilityTemplate, Hours: hours},
			{ID: 1, Availability: models.AvailabilityTemplate, Hours: hours},
		}, true},
		{"end before start", []models.Provider{{ID: 1, Availability: models.AvailabilityTemplate,
			Hours: models.WorkingHours{Start: "17:00", End: "9:00"}}}, true},
		{"bad slot", []models.Provider{{ID: 1, Availability: models.AvailabilitySlots,
			Slots: []models.AvailabilitySlot{{Date: "2025-02-30", Time: "9:00"}}}}, true},
		{"unknown availability", []models.Provider{{ID: 1, Availability: "magic"}}, true},
		{"duplicate service", []models.Provider{{ID: 1, Availability: models.AvailabilityTemplate, Hours: hours,
			Services: []models.Service{{ID: 5}, {ID: 5}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProviders(tt.providers)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
