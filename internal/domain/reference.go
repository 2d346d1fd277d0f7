package domain

import (
	"fmt"
	"time"
)

const (
	ReferencePrefixRemittance = "RM"
	ReferencePrefixExchange   = "CE"
)

// NewReference builds a human-readable reference like RM-24102025-143059-123.
// Millisecond resolution means concurrent creation can collide; references
// are operator-facing codes, not unique keys.
func NewReference(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, at.Format("02012006-150405"), at.Nanosecond()/1_000_000)
}
