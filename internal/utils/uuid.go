package utils

import "github.com/google/uuid"

// NewRunID returns a time-ordered identifier for a batch run, falling back
// to a random UUID if the clock source fails.
func NewRunID() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
