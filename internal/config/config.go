package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"barberbook/internal/models"
	"barberbook/internal/timeparse"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Bot        BotConfig        `yaml:"bot"`
	LLM        LLMConfig        `yaml:"llm"`
	Payments   PaymentsConfig   `yaml:"payments"`
	Calendar   CalendarConfig   `yaml:"calendar"`
}

type BotConfig struct {
	RateLimitMessages    int      `yaml:"rate_limit_messages"`
	RateLimitWindow      int      `yaml:"rate_limit_window"` // seconds
	SessionTTL           int      `yaml:"session_ttl"`       // seconds
	RecentAppointments   int      `yaml:"recent_appointments"`
	AvailabilityDays     int      `yaml:"availability_days"`
	Timezone             string   `yaml:"timezone"`
	ReminderOffsets      []string `yaml:"reminder_offsets"`       // Go durations before the appointment
	ReminderPollInterval int      `yaml:"reminder_poll_interval"` // seconds
}

type LLMConfig struct {
	Enabled bool    `yaml:"enabled"`
	APIKey  string  `yaml:"api_key"`
	Model   string  `yaml:"model"`
	RPS     float64 `yaml:"rps"`
	Timeout int     `yaml:"timeout"` // seconds
}

type PaymentsConfig struct {
	StripeSecretKey string `yaml:"stripe_secret_key"`
	Currency        string `yaml:"currency"`
	SuccessURL      string `yaml:"success_url"`
	CancelURL       string `yaml:"cancel_url"`
}

type CalendarConfig struct {
	Dir    string `yaml:"dir"`
	ProdID string `yaml:"prod_id"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Подстановка переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := c.ReminderOffsets(); err != nil {
		return err
	}

	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return errors.New("llm api key is required when llm is enabled")
	}

	return nil
}

// Location resolves the bot timezone used for "today" and slot instants.
func (c *Config) Location() (*time.Location, error) {
	if c.Bot.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Bot.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid bot timezone %q: %w", c.Bot.Timezone, err)
	}
	return loc, nil
}

// ReminderOffsets parses bot.reminder_offsets.
func (c *Config) ReminderOffsets() ([]time.Duration, error) {
	offsets := make([]time.Duration, 0, len(c.Bot.ReminderOffsets))
	for _, raw := range c.Bot.ReminderOffsets {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid reminder offset %q: %w", raw, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("reminder offset %q must be positive", raw)
		}
		offsets = append(offsets, d)
	}
	return offsets, nil
}

// PaymentsEnabled reports whether checkout links can be issued.
func (c *Config) PaymentsEnabled() bool {
	return c.Payments.StripeSecretKey != ""
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "barberbook"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	// Bot defaults
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
	if c.Bot.SessionTTL == 0 {
		c.Bot.SessionTTL = models.DefaultSessionTTL
	}
	if c.Bot.RecentAppointments == 0 {
		c.Bot.RecentAppointments = models.DefaultRecentAppointments
	}
	if c.Bot.AvailabilityDays == 0 {
		c.Bot.AvailabilityDays = models.DefaultAvailabilityDays
	}
	if c.Bot.ReminderOffsets == nil {
		c.Bot.ReminderOffsets = []string{"24h", "1h"}
	}
	if c.Bot.ReminderPollInterval == 0 {
		c.Bot.ReminderPollInterval = models.ReminderPollInterval
	}

	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-1.5-flash"
	}
	if c.LLM.RPS == 0 {
		c.LLM.RPS = 1
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 10
	}

	if c.Payments.Currency == "" {
		c.Payments.Currency = "usd"
	}

	if c.Calendar.Dir == "" {
		c.Calendar.Dir = "data/calendars"
	}
	if c.Calendar.ProdID == "" {
		c.Calendar.ProdID = "-//barberbook//bot//EN"
	}
}

// LoadProviders reads the provider catalogue.
func LoadProviders(path string) ([]models.Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var catalogue struct {
		Providers []models.Provider `yaml:"providers"`
	}
	if err := yaml.Unmarshal(data, &catalogue); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i := range catalogue.Providers {
		p := &catalogue.Providers[i]
		if p.Availability == "" {
			p.Availability = models.AvailabilityTemplate
		}
		if p.Hours.Interval == 0 {
			p.Hours.Interval = models.DefaultSlotInterval
		}
		for j := range p.Services {
			p.Services[j].ProviderID = p.ID
			if p.Services[j].Duration == 0 {
				p.Services[j].Duration = models.DefaultServiceDuration
			}
		}
	}

	if err := ValidateProviders(catalogue.Providers); err != nil {
		return nil, err
	}
	return catalogue.Providers, nil
}

func ValidateProviders(providers []models.Provider) error {
	providerIDs := make(map[int64]bool)
	serviceIDs := make(map[int64]bool)
	for _, p := range providers {
		if p.ID == 0 {
			return fmt.Errorf("provider '%s' has invalid ID 0", p.Name)
		}
		if providerIDs[p.ID] {
			return fmt.Errorf("duplicate provider ID found: %d", p.ID)
		}
		providerIDs[p.ID] = true

		switch p.Availability {
		case models.AvailabilityTemplate:
			start, ok := timeparse.NormalizeDisplay(p.Hours.Start)
			if !ok {
				return fmt.Errorf("provider %d: invalid start time %q", p.ID, p.Hours.Start)
			}
			end, ok := timeparse.NormalizeDisplay(p.Hours.End)
			if !ok {
				return fmt.Errorf("provider %d: invalid end time %q", p.ID, p.Hours.End)
			}
			if end.Minutes() <= start.Minutes() {
				return fmt.Errorf("provider %d: end %s is not after start %s", p.ID, p.Hours.End, p.Hours.Start)
			}
		case models.AvailabilitySlots:
			for _, s := range p.Slots {
				if _, err := timeparse.ComposeAppointmentDateTime(s.Date, s.Time, time.UTC); err != nil {
					return fmt.Errorf("provider %d: slot %s %s: %w", p.ID, s.Date, s.Time, err)
				}
			}
		default:
			return fmt.Errorf("provider %d: unknown availability %q", p.ID, p.Availability)
		}

		for _, s := range p.Services {
			if s.ID == 0 {
				return fmt.Errorf("service '%s' of provider %d has invalid ID 0", s.Name, p.ID)
			}
			if serviceIDs[s.ID] {
				return fmt.Errorf("duplicate service ID found: %d", s.ID)
			}
			serviceIDs[s.ID] = true
			if s.Price < 0 {
				return fmt.Errorf("service %d has negative price", s.ID)
			}
		}
	}
	return nil
}
