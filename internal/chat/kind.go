package chat

// Kind classifies a reply so callers can tell recoverable validation
// problems from terminal conditions without parsing text.
type Kind int

const (
	KindMenu Kind = iota
	KindPrompt
	KindUnknownCommand
	KindAborted

	// Recoverable: the step is re-prompted.
	KindInvalidTimeFormat
	KindUnparseableDateTime
	KindSlotUnavailable
	KindOutOfRangeSelection
	KindYesNoExpected
	KindNotConfirmed

	// Terminal for the attempt: the session returns to idle.
	KindNoProvidersFound
	KindNoServicesFound
	KindNoAppointmentsToCancel
	KindNoPriorAppointment
	KindPersistenceError
	KindInternalError
	KindNotCancelled

	KindBooked
	KindCancelled
	KindPay
)

var kindNames = map[Kind]string{
	KindMenu:                   "menu",
	KindPrompt:                 "prompt",
	KindUnknownCommand:         "unknown_command",
	KindAborted:                "aborted",
	KindInvalidTimeFormat:      "invalid_time_format",
	KindUnparseableDateTime:    "unparseable_date_time",
	KindSlotUnavailable:        "slot_unavailable",
	KindOutOfRangeSelection:    "out_of_range_selection",
	KindYesNoExpected:          "yes_no_expected",
	KindNotConfirmed:           "not_confirmed",
	KindNoProvidersFound:       "no_providers_found",
	KindNoServicesFound:        "no_services_found",
	KindNoAppointmentsToCancel: "no_appointments_to_cancel",
	KindNoPriorAppointment:     "no_prior_appointment",
	KindPersistenceError:       "persistence_error",
	KindInternalError:          "internal_error",
	KindNotCancelled:           "not_cancelled",
	KindBooked:                 "booked",
	KindCancelled:              "cancelled",
	KindPay:                    "pay",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Recoverable reports whether the user stays on the same step.
func (k Kind) Recoverable() bool {
	return k >= KindInvalidTimeFormat && k <= KindNotConfirmed
}
