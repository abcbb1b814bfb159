// Package ids generates the identifiers used across every aggregate.
package ids

import "github.com/google/uuid"

// New returns an opaque, globally unique, time-sortable token. Identifiers
// are generated once at creation and never reused.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the entropy source does; fall back to v4.
		return uuid.NewString()
	}
	return id.String()
}
