// Package util holds small internal helpers shared across packages.
package util

import "github.com/google/uuid"

// NewID returns a random unique identifier.
func NewID() string { return uuid.NewString() }
