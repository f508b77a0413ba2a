package leads

import "errors"

var (
	// ErrUnavailable is returned when the database cannot be reached.
	ErrUnavailable = errors.New("leads: database unavailable")

	// ErrLeadNotFound is returned when a lead lookup finds nothing.
	ErrLeadNotFound = errors.New("leads: lead not found")
)
