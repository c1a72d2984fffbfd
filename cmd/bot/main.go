package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"barberbook/internal/availability"
	"barberbook/internal/bot"
	"barberbook/internal/calendar"
	"barberbook/internal/chat"
	"barberbook/internal/config"
	"barberbook/internal/database"
	"barberbook/internal/events"
	"barberbook/internal/logging"
	"barberbook/internal/metrics"
	"barberbook/internal/models"
	"barberbook/internal/payments"
	"barberbook/internal/repository"
	"barberbook/internal/service"
	"barberbook/internal/suggest"
	"barberbook/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, providers, base, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := *logging.Component(&base, "bot-main")

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	offsets, err := cfg.ReminderOffsets()
	if err != nil {
		return err
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := initDatabase(cfg, providers, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateService := initStateService(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug
	tgService := service.NewTelegramService(bot.NewBotWrapper(botAPI))

	reminderScheduler := worker.NewReminderScheduler(db, offsets, loc, logging.Component(&base, "reminders"))
	reminderWorker := worker.NewReminderWorker(
		db, tgService, redisClient, worker.DefaultRetryPolicy(),
		time.Duration(cfg.Bot.ReminderPollInterval)*time.Second, logging.Component(&base, "reminder-worker"),
	).WithMetrics(m)
	go reminderWorker.Start(ctx)

	calendarStore, err := calendar.NewStore(cfg.Calendar.Dir, cfg.Calendar.ProdID, loc, logging.Component(&base, "calendar"))
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus()
	subscribeAppointmentEvents(eventBus, &logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	userService := service.NewUserService(db, &logger)

	deps := chat.Deps{
		Profiles:     userService,
		Directory:    db,
		Appointments: db,
		Slots:        availability.NewResolver(db, db, cfg.Bot.AvailabilityDays, loc, &logger),
		Sessions:     stateService,
		Reminders:    reminderScheduler,
		Calendar:     calendarStore,
		Events:       eventBus,
		Metrics:      m,
		RecentCount:  cfg.Bot.RecentAppointments,
	}

	if cfg.LLM.Enabled {
		gemini, err := suggest.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			logger.Warn().Err(err).Msg("Model suggestions disabled")
		} else {
			defer gemini.Close()
			deps.Suggester = suggest.New(gemini, cfg.LLM.RPS, time.Duration(cfg.LLM.Timeout)*time.Second, logging.Component(&base, "suggest"))
		}
	}

	if cfg.PaymentsEnabled() {
		deps.Payments = payments.NewCheckout(cfg.Payments, logging.Component(&base, "payments"))
	}

	engine, err := chat.NewEngine(deps, logging.Component(&base, "chat"))
	if err != nil {
		return err
	}

	telegramBot, err := bot.NewBot(tgService, cfg, engine, userService, stateService, calendarStore, m, logging.Component(&base, "bot"))
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	go func() {
		<-ctx.Done()
		telegramBot.Stop()
	}()

	logger.Info().Msg("Бот запущен...")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, []models.Provider, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}
	logger := *baseLogger

	providersPath := os.Getenv("PROVIDERS_PATH")
	if providersPath == "" {
		providersPath = "configs/providers.yaml"
	}
	providers, err := config.LoadProviders(providersPath)
	if err != nil {
		logger.Error().Err(err).Msgf("Ошибка чтения %s", providersPath)
		return nil, nil, zerolog.Logger{}, closer, err
	}

	return cfg, providers, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if cfg.Backup.Enabled && cfg.Backup.StoragePath != "" {
		if err := os.MkdirAll(cfg.Backup.StoragePath, 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для бэкапов")
			return err
		}
	}
	return nil
}

func initDatabase(cfg *config.Config, providers []models.Provider, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return nil, err
	}

	if err := db.SyncProviders(context.Background(), providers); err != nil {
		logger.Error().Err(err).Msg("Ошибка синхронизации мастеров")
	}
	return db, nil
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	ttl := time.Duration(cfg.Bot.SessionTTL) * time.Second

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	fallbackRepo := repository.NewMemoryStateRepository(ttl)
	if redisClient == nil {
		return nil, service.NewStateService(fallbackRepo, logger)
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, ttl)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

func subscribeAppointmentEvents(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(ev *events.Event) error {
		payload, err := ev.DecodeAppointment()
		if err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Int64("appointment_id", payload.AppointmentID).
			Int64("customer_id", payload.CustomerID).
			Str("provider", payload.ProviderName).
			Str("service", payload.ServiceName).
			Str("date", payload.Date).
			Str("time", payload.Time).
			Msg("appointment event")
		return nil
	}

	bus.Subscribe(events.EventAppointmentBooked, handler)
	bus.Subscribe(events.EventAppointmentCancelled, handler)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
