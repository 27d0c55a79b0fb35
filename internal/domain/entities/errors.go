package entities

import "errors"

// Domain errors
var (
	// Utterance errors
	ErrInvalidUtterance = errors.New("invalid utterance")

	// Roster errors
	ErrInvalidParticipant = errors.New("invalid participant record")
)
