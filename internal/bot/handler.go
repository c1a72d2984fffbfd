package bot

import (
	"context"
	"fmt"

	"barberbook/internal/chat"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	logger := zerolog.Ctx(ctx).With().Int64("user_id", userID).Logger()
	ctx = logger.WithContext(ctx)

	if !msg.IsCommand() {
		b.converse(ctx, chatID, userID, msg.Text)
		return
	}

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "stop":
		b.handleStop(ctx, chatID, userID)
	case "menu":
		b.converse(ctx, chatID, userID, "menu")
	case "area":
		b.handleArea(ctx, chatID, userID, msg.CommandArguments())
	case "calendar":
		b.handleCalendar(ctx, chatID, userID)
	case "help":
		b.sendMessage(chatID, msgHelp)
	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if err := b.userService.SaveTelegramUser(ctx, msg.From); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to save user")
	}

	turn, err := b.engine.Start(ctx, msg.From.ID)
	if err != nil {
		b.fail(ctx, msg.Chat.ID, "start", err)
		return
	}
	b.sendTurn(ctx, msg.Chat.ID, turn)
}

func (b *Bot) handleStop(ctx context.Context, chatID, userID int64) {
	if err := b.engine.Leave(ctx, userID); err != nil {
		b.fail(ctx, chatID, "stop", err)
		return
	}
	b.sendMessage(chatID, msgStopped)
}

func (b *Bot) handleArea(ctx context.Context, chatID, userID int64, args string) {
	key, err := b.userService.SetLocality(ctx, userID, args)
	if err != nil {
		b.fail(ctx, chatID, "area", err)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf(msgAreaSet, key))
}

func (b *Bot) handleCalendar(ctx context.Context, chatID, userID int64) {
	if b.calendar == nil {
		b.sendMessage(chatID, msgCalendarOff)
		return
	}
	data, err := b.calendar.Export(userID)
	if err != nil {
		b.fail(ctx, chatID, "calendar", err)
		return
	}
	if _, err := b.tgService.SendDocument(chatID, calendarFileName, data, msgCalendarCaption); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to send calendar")
	}
}

// converse hands free text to the engine. A turn returned with an error
// was decided but not saved, so its replies are still sent.
func (b *Bot) converse(ctx context.Context, chatID, userID int64, text string) {
	turn, err := b.engine.Handle(ctx, userID, text)
	if err != nil {
		if turn == nil {
			b.fail(ctx, chatID, "engine", err)
			return
		}
		b.countError("session")
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to save session")
	}
	b.sendTurn(ctx, chatID, turn)
}

func (b *Bot) sendTurn(ctx context.Context, chatID int64, turn *chat.Turn) {
	if turn == nil || turn.Stale {
		return
	}
	for _, r := range turn.Replies {
		var err error
		if len(r.Options) > 0 {
			_, err = b.tgService.SendWithKeyboard(chatID, r.Text, optionsKeyboard(r.Options))
		} else {
			msg := tgbotapi.NewMessage(chatID, r.Text)
			msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
			_, err = b.tgService.Send(msg)
		}
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("kind", r.Kind.String()).Msg("Failed to send reply")
		}
	}
}

func (b *Bot) fail(ctx context.Context, chatID int64, source string, err error) {
	if !isUserError(err) {
		b.countError(source)
		zerolog.Ctx(ctx).Error().Err(err).Str("source", source).Msg("Update handling failed")
	}
	b.sendMessage(chatID, b.getErrorMessage(err))
}

func (b *Bot) countError(source string) {
	if b.metrics != nil {
		b.metrics.Error(source)
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func optionsKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(options); i += keyboardRowSize {
		end := min(i+keyboardRowSize, len(options))
		row := make([]tgbotapi.KeyboardButton, 0, end-i)
		for _, o := range options[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(o))
		}
		rows = append(rows, row)
	}
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}
