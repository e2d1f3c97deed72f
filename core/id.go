package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for runs and tool calls.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }
