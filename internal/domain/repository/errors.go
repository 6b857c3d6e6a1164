package repository

import "errors"

var (
	// ErrSlotTaken is returned when a non-cancelled appointment already occupies the slot
	ErrSlotTaken = errors.New("slot already taken")
	// ErrUnknownPatient is returned when a write references a patient that does not exist
	ErrUnknownPatient = errors.New("unknown patient reference")
	// ErrUnknownDoctor is returned when a write references a doctor that does not exist
	ErrUnknownDoctor = errors.New("unknown doctor reference")
)
