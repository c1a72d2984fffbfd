package chat

import (
	"errors"

	"barberbook/internal/models"
)

// ErrPersistence marks a failed create or cancel call.
var ErrPersistence = errors.New("persistence failed")

// Reply is one outgoing chat message.
type Reply struct {
	Kind       Kind
	Text       string
	Options    []string
	Suggestion *models.Suggestion
}

// Effect names a best-effort side effect of booking or cancelling.
type Effect string

const (
	EffectCalendarAdd    Effect = "calendar_add"
	EffectCalendarRemove Effect = "calendar_remove"
	EffectReminderAdd    Effect = "reminder_schedule"
	EffectReminderCancel Effect = "reminder_cancel"
	EffectEventPublish   Effect = "event_publish"
)

// EffectResult records one side effect. Err is nil on success.
type EffectResult struct {
	Effect Effect
	Err    error
}

// Outcome is the result of a durable booking or cancellation. The
// appointment is already stored; Effects only report what followed.
type Outcome struct {
	Appointment models.Appointment
	Cancelled   bool
	Effects     []EffectResult
}

// Failed returns the side effects that did not succeed.
func (o *Outcome) Failed() []EffectResult {
	if o == nil {
		return nil
	}
	var out []EffectResult
	for _, e := range o.Effects {
		if e.Err != nil {
			out = append(out, e)
		}
	}
	return out
}

// Turn is everything one input produced.
type Turn struct {
	Replies []Reply
	State   State
	Outcome *Outcome
	// Err is the collaborator failure behind a PersistenceError or
	// InternalError reply.
	Err error
	// Stale is set when the session was reset while the input was being
	// handled; Replies and State were discarded.
	Stale bool
}

// Kinds lists reply kinds in order.
func (t *Turn) Kinds() []Kind {
	if t == nil {
		return nil
	}
	kinds := make([]Kind, 0, len(t.Replies))
	for _, r := range t.Replies {
		kinds = append(kinds, r.Kind)
	}
	return kinds
}
