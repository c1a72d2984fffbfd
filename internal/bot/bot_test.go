package bot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"barberbook/internal/calendar"
	"barberbook/internal/chat"
	"barberbook/internal/config"
	"barberbook/internal/domain"
	"barberbook/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	chatID   int64
	text     string
	options  []string
	document string
}

type mockTelegramService struct {
	domain.TelegramService
	updatesChan chan tgbotapi.Update
	mu          sync.Mutex
	sent        []sent
}

func (m *mockTelegramService) record(s sent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, s)
}

func (m *mockTelegramService) messages() []sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sent(nil), m.sent...)
}

func (m *mockTelegramService) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updatesChan
}

func (m *mockTelegramService) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "test_bot"}
}

func (m *mockTelegramService) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.record(sent{chatID: msg.ChatID, text: msg.Text})
	}
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	m.record(sent{chatID: chatID, text: text})
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error) {
	var options []string
	for _, row := range keyboard.Keyboard {
		for _, button := range row {
			options = append(options, button.Text)
		}
	}
	m.record(sent{chatID: chatID, text: text, options: options})
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendDocument(chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error) {
	m.record(sent{chatID: chatID, text: caption, document: name})
	return tgbotapi.Message{}, nil
}

type fakeConversation struct {
	mu      sync.Mutex
	inputs  []string
	started int
	left    int
	turn    *chat.Turn
	err     error
}

func (f *fakeConversation) Start(context.Context, int64) (*chat.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return &chat.Turn{Replies: []chat.Reply{{Kind: chat.KindMenu, Text: "menu", Options: []string{"1", "2", "3", "4"}}}}, nil
}

func (f *fakeConversation) Leave(context.Context, int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left++
	return nil
}

func (f *fakeConversation) Handle(_ context.Context, _ int64, text string) (*chat.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, text)
	return f.turn, f.err
}

type fakeUsers struct {
	mu       sync.Mutex
	saved    []string
	locality string
}

func (f *fakeUsers) SaveTelegramUser(_ context.Context, from *tgbotapi.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, from.UserName)
	return nil
}

func (f *fakeUsers) SetLocality(_ context.Context, _ int64, raw string) (string, error) {
	if raw == "" {
		return "", service.ErrEmptyLocality
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locality = raw
	return raw, nil
}

func (f *fakeUsers) UpdateUserActivity(context.Context, int64) error { return nil }

type fakeLimiter struct{ allowed bool }

func (f fakeLimiter) CheckRateLimit(context.Context, int64, int, time.Duration) (bool, error) {
	return f.allowed, nil
}

type fakeCalendar struct {
	data []byte
	err  error
}

func (f fakeCalendar) Export(int64) ([]byte, error) { return f.data, f.err }

type fakeRecorder struct {
	mu          sync.Mutex
	updates     int
	rateLimited int
	errors      []string
}

func (f *fakeRecorder) ObserveUpdate(time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
}

func (f *fakeRecorder) RateLimited() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rateLimited++
}

func (f *fakeRecorder) Error(source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, source)
}

type harness struct {
	bot      *Bot
	tg       *mockTelegramService
	engine   *fakeConversation
	users    *fakeUsers
	recorder *fakeRecorder
}

func newHarness(t *testing.T, limiter RateLimiter, cal CalendarExporter) *harness {
	t.Helper()
	h := &harness{
		tg:       &mockTelegramService{updatesChan: make(chan tgbotapi.Update, 1)},
		engine:   &fakeConversation{},
		users:    &fakeUsers{},
		recorder: &fakeRecorder{},
	}
	logger := zerolog.New(io.Discard)
	cfg := &config.Config{Bot: config.BotConfig{RateLimitMessages: 5, RateLimitWindow: 60}}
	b, err := NewBot(h.tg, cfg, h.engine, h.users, limiter, cal, h.recorder, &logger)
	require.NoError(t, err)
	h.bot = b
	return h
}

func message(text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 123, UserName: "testuser"},
		Chat: &tgbotapi.Chat{ID: 123},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{Message: msg}
}

func TestBotStart(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.bot.Start(ctx)
		close(done)
	}()

	h.tg.updatesChan <- message("/start")

	require.Eventually(t, func() bool { return len(h.tg.messages()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	got := h.tg.messages()[0]
	assert.Equal(t, "menu", got.text)
	assert.Equal(t, []string{"1", "2", "3", "4"}, got.options)
	assert.Equal(t, []string{"testuser"}, h.users.saved)
	assert.Equal(t, 1, h.engine.started)
	assert.Equal(t, 1, h.recorder.updates)
}

func TestTextGoesToEngine(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, nil)
	h.engine.turn = &chat.Turn{Replies: []chat.Reply{{Kind: chat.KindBooked, Text: "Booked."}}}

	h.bot.processUpdate(context.Background(), message("yes"))

	assert.Equal(t, []string{"yes"}, h.engine.inputs)
	require.Len(t, h.tg.messages(), 1)
	assert.Equal(t, "Booked.", h.tg.messages()[0].text)
	assert.Empty(t, h.tg.messages()[0].options)
}

func TestMenuCommandAbortsThroughEngine(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, nil)
	h.engine.turn = &chat.Turn{}

	h.bot.processUpdate(context.Background(), message("/menu"))

	assert.Equal(t, []string{"menu"}, h.engine.inputs)
}

func TestStaleTurnIsNotSent(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, nil)
	h.engine.turn = &chat.Turn{Stale: true, Replies: []chat.Reply{{Text: "late"}}}

	h.bot.processUpdate(context.Background(), message("2"))

	assert.Empty(t, h.tg.messages())
}

func TestEngineFailure(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, nil)
	h.engine.err = errors.New("redis down")

	h.bot.processUpdate(context.Background(), message("1"))

	require.Len(t, h.tg.messages(), 1)
	assert.Equal(t, msgGenericError, h.tg.messages()[0].text)
	assert.Equal(t, []string{"engine"}, h.recorder.errors)
}

func TestUnsavedTurnStillReplies(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, nil)
	h.engine.turn = &chat.Turn{Replies: []chat.Reply{{Kind: chat.KindPrompt, Text: "Pick a service"}}}
	h.engine.err = errors.New("save session: redis down")

	h.bot.processUpdate(context.Background(), message("1"))

	require.Len(t, h.tg.messages(), 1)
	assert.Equal(t, "Pick a service", h.tg.messages()[0].text)
	assert.Equal(t, []string{"session"}, h.recorder.errors)
}

func TestRateLimited(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: false}, nil)

	h.bot.processUpdate(context.Background(), message("1"))

	assert.Empty(t, h.engine.inputs)
	require.Len(t, h.tg.messages(), 1)
	assert.Equal(t, msgRateLimited, h.tg.messages()[0].text)
	assert.Equal(t, 1, h.recorder.rateLimited)
}

func TestStopCommand(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, nil)

	h.bot.processUpdate(context.Background(), message("/stop"))

	assert.Equal(t, 1, h.engine.left)
	require.Len(t, h.tg.messages(), 1)
	assert.Equal(t, msgStopped, h.tg.messages()[0].text)
}

func TestAreaCommand(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, nil)

	h.bot.processUpdate(context.Background(), message("/area"))
	h.bot.processUpdate(context.Background(), message("/area old-town"))

	got := h.tg.messages()
	require.Len(t, got, 2)
	assert.Equal(t, msgAreaUsage, got[0].text)
	assert.Equal(t, "Your area is now old-town.", got[1].text)
	assert.Equal(t, "old-town", h.users.locality)
	assert.Empty(t, h.recorder.errors)
}

func TestCalendarCommand(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, fakeCalendar{data: []byte("BEGIN:VCALENDAR")})

	h.bot.processUpdate(context.Background(), message("/calendar"))

	require.Len(t, h.tg.messages(), 1)
	assert.Equal(t, calendarFileName, h.tg.messages()[0].document)
}

func TestCalendarCommandWithoutEntries(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, fakeCalendar{err: calendar.ErrNoCalendar})

	h.bot.processUpdate(context.Background(), message("/calendar"))

	require.Len(t, h.tg.messages(), 1)
	assert.Equal(t, msgNoCalendar, h.tg.messages()[0].text)
	assert.Empty(t, h.recorder.errors)
}

func TestCalendarDisabled(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, nil)

	h.bot.processUpdate(context.Background(), message("/calendar"))

	require.Len(t, h.tg.messages(), 1)
	assert.Equal(t, msgCalendarOff, h.tg.messages()[0].text)
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, nil)

	h.bot.processUpdate(context.Background(), message("/frobnicate"))

	require.Len(t, h.tg.messages(), 1)
	assert.Equal(t, msgUnknownCommand, h.tg.messages()[0].text)
	assert.Empty(t, h.engine.inputs)
}

func TestPanicIsRecovered(t *testing.T) {
	h := newHarness(t, fakeLimiter{allowed: true}, nil)
	h.bot.engine = nil

	assert.NotPanics(t, func() {
		h.bot.processUpdate(context.Background(), message("1"))
	})
	assert.Equal(t, []string{"panic"}, h.recorder.errors)
}

func TestOptionsKeyboard(t *testing.T) {
	keyboard := optionsKeyboard([]string{"1", "2", "3", "4", "menu"})

	require.Len(t, keyboard.Keyboard, 2)
	assert.Len(t, keyboard.Keyboard[0], 3)
	assert.Equal(t, "menu", keyboard.Keyboard[1][1].Text)
	assert.True(t, keyboard.OneTimeKeyboard)
}
