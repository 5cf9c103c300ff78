package service

import "errors"

var (
	// ErrUserNotFound is returned when a participant record expected to exist is missing
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientParticipants is returned when fewer than two participants are registered
	ErrInsufficientParticipants = errors.New("insufficient participants")

	// ErrAlreadyDrawn is returned when the draw gate is closed
	ErrAlreadyDrawn = errors.New("draw already happened")

	// ErrEmptyInput is returned for blank names and wishes
	ErrEmptyInput = errors.New("input is empty")

	// ErrInputTooLong is returned for names and wishes above the length limit
	ErrInputTooLong = errors.New("input is too long")

	// ErrNameRequired is returned when a wish is set before a name
	ErrNameRequired = errors.New("name must be set before the wish")

	// ErrDuplicateParticipant is returned when the draw input lists a participant twice
	ErrDuplicateParticipant = errors.New("duplicate participant")
)
