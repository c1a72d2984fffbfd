package bot

const (
	msgRateLimited  = "You are sending messages too fast. Please wait a moment."
	msgGenericError = "Something went wrong. Please try again later."
	msgTimeout      = "That took too long. Please try again."
	msgHelp         = "Send /start to open the menu, then reply with a number or type what you need.\n" +
		"/area <name> sets your neighbourhood, /calendar sends your appointments, /stop ends the conversation."
	msgStopped         = "Conversation closed. Send /start to begin again."
	msgAreaUsage       = "Usage: /area <neighbourhood>, for example /area old town"
	msgAreaSet         = "Your area is now %s."
	msgNoCalendar      = "You have no appointments in your calendar yet."
	msgCalendarOff     = "Calendar export is not available."
	msgCalendarCaption = "Your appointments"
	msgUnknownCommand  = "Unknown command. Send /help for the list of commands."

	calendarFileName = "appointments.ics"
	keyboardRowSize  = 3
)
