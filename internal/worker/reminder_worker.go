package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"barberbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Notifier delivers a reminder text to a chat.
type Notifier interface {
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
}

// ReminderRecorder counts delivery results.
type ReminderRecorder interface {
	Reminder(result string)
}

// ReminderWorker polls the reminder queue and delivers due reminders.
type ReminderWorker struct {
	store         ReminderStore
	notifier      Notifier
	redis         *redis.Client
	retryPolicy   RetryPolicy
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	now           func() time.Time
	metrics       ReminderRecorder
	logger        *zerolog.Logger
}

// NewReminderWorker builds a worker with sane defaults. redisClient is
// optional and only receives dead letters.
func NewReminderWorker(store ReminderStore, notifier Notifier, redisClient *redis.Client, retry RetryPolicy, pollInterval time.Duration, logger *zerolog.Logger) *ReminderWorker {
	defaults := DefaultRetryPolicy()
	if retry.MaxRetries == 0 {
		retry.MaxRetries = defaults.MaxRetries
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = defaults.InitialDelay
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = defaults.MaxDelay
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = defaults.BackoffFactor
	}
	if pollInterval <= 0 {
		pollInterval = models.ReminderPollInterval * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &ReminderWorker{
		store:         store,
		notifier:      notifier,
		redis:         redisClient,
		retryPolicy:   retry,
		deadLetterKey: "reminders:deadletter",
		pollInterval:  pollInterval,
		batchSize:     50,
		now:           time.Now,
		logger:        logger,
	}
}

// WithMetrics attaches a delivery counter.
func (w *ReminderWorker) WithMetrics(m ReminderRecorder) *ReminderWorker {
	w.metrics = m
	return w
}

// Start runs the polling loop; stops when ctx is done.
func (w *ReminderWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("poll_interval", w.pollInterval).Msg("reminder worker started")
	defer w.logger.Info().Msg("reminder worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce delivers every reminder due now and returns how many were
// attempted.
func (w *ReminderWorker) RunOnce(ctx context.Context) int {
	due, err := w.store.DueReminders(ctx, w.now(), w.batchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("fetch due reminders")
		return 0
	}
	for i := range due {
		if ctx.Err() != nil {
			return i
		}
		w.deliver(ctx, &due[i])
	}
	return len(due)
}

func (w *ReminderWorker) deliver(ctx context.Context, r *models.Reminder) {
	if _, err := w.notifier.SendMessage(r.UserID, r.Message); err != nil {
		w.retryOrFail(ctx, r, err)
		return
	}
	if err := w.store.MarkReminderSent(ctx, r.ID); err != nil {
		w.logger.Error().Err(err).Int64("reminder_id", r.ID).Msg("mark reminder sent")
	}
	w.record("sent")
}

func (w *ReminderWorker) retryOrFail(ctx context.Context, r *models.Reminder, cause error) {
	attempt := r.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		if err := w.store.MarkReminderFailed(ctx, r.ID, cause.Error()); err != nil {
			w.logger.Error().Err(err).Int64("reminder_id", r.ID).Msg("mark reminder failed")
		}
		w.logger.Warn().Err(cause).Int64("reminder_id", r.ID).Int("attempt", attempt).Msg("reminder delivery gave up")
		w.pushDeadLetter(ctx, r)
		w.record("failed")
		return
	}

	next := w.now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.store.MarkReminderRetry(ctx, r.ID, cause.Error(), next); err != nil {
		w.logger.Error().Err(err).Int64("reminder_id", r.ID).Msg("mark reminder retry")
	}
	w.record("retry")
}

func (w *ReminderWorker) pushDeadLetter(ctx context.Context, r *models.Reminder) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		w.logger.Error().Err(err).Int64("reminder_id", r.ID).Msg("encode dead letter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error().Err(err).Int64("reminder_id", r.ID).Msg("dead letter push")
	}
}

func (w *ReminderWorker) record(result string) {
	if w.metrics != nil {
		w.metrics.Reminder(result)
	}
}
