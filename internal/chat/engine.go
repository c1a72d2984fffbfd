package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barberbook/internal/domain"
	"barberbook/internal/models"
	"barberbook/internal/timeparse"

	"github.com/rs/zerolog"
)

// ProfileReader loads the customer profile the flows book against.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
}

// SlotResolver yields the bookable slots of a provider.
type SlotResolver interface {
	Slots(ctx context.Context, p *models.Provider) ([]models.AvailabilitySlot, error)
	Today() timeparse.CalendarDate
}

// Recorder receives engine metrics.
type Recorder interface {
	ReplySent(kind string)
	AppointmentBooked()
	AppointmentCancelled()
	SideEffectFailed(effect string)
	StaleDiscarded()
}

// Deps are the collaborators of the engine. Reminders, Calendar,
// Suggester, Payments, Events and Metrics are optional.
type Deps struct {
	Profiles     ProfileReader
	Directory    domain.ProviderDirectory
	Appointments domain.AppointmentRepository
	Slots        SlotResolver
	Sessions     domain.StateRepository

	Reminders domain.ReminderScheduler
	Calendar  domain.CalendarSync
	Suggester domain.Suggester
	Payments  domain.PaymentLinker
	Events    domain.EventPublisher
	Metrics   Recorder

	// RecentCount is how many appointments the cancel flow lists.
	RecentCount int
}

// Engine runs the booking, repeat and cancel conversations. Session state
// lives in Deps.Sessions, so one engine serves every user.
type Engine struct {
	deps   Deps
	logger *zerolog.Logger
}

func NewEngine(deps Deps, logger *zerolog.Logger) (*Engine, error) {
	if deps.Profiles == nil || deps.Directory == nil || deps.Appointments == nil ||
		deps.Slots == nil || deps.Sessions == nil {
		return nil, errors.New("chat: profiles, directory, appointments, slots and sessions are required")
	}
	if deps.RecentCount <= 0 {
		deps.RecentCount = models.DefaultRecentAppointments
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Engine{deps: deps, logger: logger}, nil
}

// Start resets the session and shows the menu. It is the screen focus.
func (e *Engine) Start(ctx context.Context, userID int64) (*Turn, error) {
	if err := e.reset(ctx, userID); err != nil {
		return nil, err
	}
	turn := reply(Idle{}, menuReply())
	e.recordReplies(turn)
	return turn, nil
}

// Leave resets the session without replying. Results of inputs still
// being handled are discarded.
func (e *Engine) Leave(ctx context.Context, userID int64) error {
	return e.reset(ctx, userID)
}

// Handle routes one input to the active flow. A Turn may come back
// together with an error when the new state could not be saved.
func (e *Engine) Handle(ctx context.Context, userID int64, text string) (*Turn, error) {
	st, gen, err := e.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	turn := e.step(ctx, userID, st, strings.TrimSpace(text))
	if turn.Err != nil {
		e.log(ctx).Error().Err(turn.Err).Int64("user_id", userID).Str("step", st.Step()).Msg("flow aborted")
	}

	current, err := e.generation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current != gen {
		e.deps.Metrics.StaleDiscarded()
		ev := e.log(ctx).Warn().Int64("user_id", userID).Int64("generation", gen).Int64("current", current)
		if turn.Outcome != nil {
			ev = ev.Int64("appointment_id", turn.Outcome.Appointment.ID)
		}
		ev.Msg("session reset while handling input, result discarded")
		return &Turn{Stale: true, Outcome: turn.Outcome}, nil
	}

	e.recordReplies(turn)
	if err := e.deps.Sessions.SetSession(ctx, Snapshot(userID, gen, turn.State)); err != nil {
		return turn, fmt.Errorf("save session: %w", err)
	}
	return turn, nil
}

func (e *Engine) step(ctx context.Context, userID int64, st State, text string) *Turn {
	if isMenuCommand(text) {
		if _, idle := st.(Idle); idle {
			return reply(Idle{}, menuReply())
		}
		return reply(Idle{}, Reply{Kind: KindAborted, Text: msgAborted}, menuReply())
	}

	switch s := st.(type) {
	case Idle:
		return e.handleMenu(ctx, userID, text)
	case ChooseProvider:
		return e.chooseProvider(ctx, s, text)
	case ChooseService:
		return e.chooseService(s, text)
	case ChooseDateTime:
		return e.chooseDateTime(ctx, s, text)
	case ConfirmBooking:
		return e.confirmBooking(ctx, userID, s, text)
	case CancelList:
		return e.cancelList(s, text)
	case CancelConfirm:
		return e.cancelConfirm(ctx, userID, s, text)
	case RepeatDateTime:
		return e.repeatDateTime(ctx, userID, s, text)
	default:
		return reply(Idle{}, menuReply())
	}
}

func (e *Engine) load(ctx context.Context, userID int64) (State, int64, error) {
	snap, err := e.deps.Sessions.GetSession(ctx, userID)
	if err != nil {
		// Нечитаемую сессию сбрасываем, иначе пользователь застрянет
		if clearErr := e.deps.Sessions.ClearSession(ctx, userID); clearErr != nil {
			return nil, 0, fmt.Errorf("load session: %w", err)
		}
		e.log(ctx).Warn().Err(err).Int64("user_id", userID).Msg("unreadable session cleared")
		return Idle{}, 0, nil
	}
	var gen int64
	if snap != nil {
		gen = snap.Generation
	}
	st, err := Restore(snap)
	if err != nil {
		e.log(ctx).Warn().Err(err).Int64("user_id", userID).Msg("invalid session, starting over")
		return Idle{}, gen, nil
	}
	return st, gen, nil
}

func (e *Engine) generation(ctx context.Context, userID int64) (int64, error) {
	snap, err := e.deps.Sessions.GetSession(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}
	if snap == nil {
		return 0, nil
	}
	return snap.Generation, nil
}

func (e *Engine) reset(ctx context.Context, userID int64) error {
	gen, err := e.generation(ctx, userID)
	if err != nil {
		if clearErr := e.deps.Sessions.ClearSession(ctx, userID); clearErr != nil {
			return err
		}
		e.log(ctx).Warn().Err(err).Int64("user_id", userID).Msg("unreadable session cleared")
		gen = 0
	}
	if err := e.deps.Sessions.SetSession(ctx, Snapshot(userID, gen+1, Idle{})); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

func (e *Engine) recordReplies(turn *Turn) {
	for _, r := range turn.Replies {
		e.deps.Metrics.ReplySent(r.Kind.String())
	}
}

// log prefers the request-scoped logger carried by ctx.
func (e *Engine) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return e.logger
}

func reply(st State, replies ...Reply) *Turn {
	return &Turn{State: st, Replies: replies}
}

func (e *Engine) internalError(op string, err error) *Turn {
	turn := reply(Idle{}, Reply{Kind: KindInternalError, Text: msgInternalError})
	turn.Err = fmt.Errorf("%s: %w", op, err)
	return turn
}

func (e *Engine) persistenceFailure(op string, err error, text string) *Turn {
	turn := reply(Idle{}, Reply{Kind: KindPersistenceError, Text: text})
	turn.Err = fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	return turn
}

type nopRecorder struct{}

func (nopRecorder) ReplySent(string)        {}
func (nopRecorder) AppointmentBooked()      {}
func (nopRecorder) AppointmentCancelled()   {}
func (nopRecorder) SideEffectFailed(string) {}
func (nopRecorder) StaleDiscarded()         {}
