package domain

import "errors"

// Errors shared between stores and the chat flows.
var (
	ErrNotFound         = errors.New("not found")
	ErrSlotTaken        = errors.New("slot already booked")
	ErrAlreadyCancelled = errors.New("appointment already cancelled")
)
