package bot

import (
	"context"
	"os"
	"time"

	"barberbook/internal/chat"
	"barberbook/internal/config"
	"barberbook/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Conversation is the booking dialogue the bot forwards text to.
type Conversation interface {
	Start(ctx context.Context, userID int64) (*chat.Turn, error)
	Leave(ctx context.Context, userID int64) error
	Handle(ctx context.Context, userID int64, text string) (*chat.Turn, error)
}

type UserService interface {
	SaveTelegramUser(ctx context.Context, from *tgbotapi.User) error
	SetLocality(ctx context.Context, telegramID int64, raw string) (string, error)
	UpdateUserActivity(ctx context.Context, telegramID int64) error
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// CalendarExporter serializes a user's calendar, if any.
type CalendarExporter interface {
	Export(userID int64) ([]byte, error)
}

type Recorder interface {
	ObserveUpdate(d time.Duration)
	RateLimited()
	Error(source string)
}

type Bot struct {
	tgService   domain.TelegramService
	config      *config.Config
	engine      Conversation
	userService UserService
	limiter     RateLimiter
	calendar    CalendarExporter
	metrics     Recorder
	logger      *zerolog.Logger
}

// NewBot wires the transport to the conversation engine. calendar and
// metrics may be nil.
func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	engine Conversation,
	userService UserService,
	limiter RateLimiter,
	calendar CalendarExporter,
	metrics Recorder,
	logger *zerolog.Logger,
) (*Bot, error) {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tgService:   tgService,
		config:      config,
		engine:      engine,
		userService: userService,
		limiter:     limiter,
		calendar:    calendar,
		metrics:     metrics,
		logger:      logger,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.ObserveUpdate(time.Since(start))
		}
	}()

	// Создаем контекст для обработки каждого обновления
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		if update.Message == nil || update.Message.From == nil {
			return
		}
		userID := update.Message.From.ID

		b.trackActivity(userID)

		if !b.allow(updateCtx, userID) {
			b.sendMessage(update.Message.Chat.ID, msgRateLimited)
			return
		}

		b.handleMessage(updateCtx, update.Message)
	})
}

func (b *Bot) allow(ctx context.Context, userID int64) bool {
	if b.limiter == nil {
		return true
	}
	window := time.Duration(b.config.Bot.RateLimitWindow) * time.Second
	allowed, err := b.limiter.CheckRateLimit(ctx, userID, b.config.Bot.RateLimitMessages, window)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
	}
	if !allowed {
		zerolog.Ctx(ctx).Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
		if b.metrics != nil {
			b.metrics.RateLimited()
		}
	}
	return allowed
}
