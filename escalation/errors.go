package escalation

import "errors"

var (
	// ErrTicketRepositoryRequired is returned when a ticket repository is not provided.
	ErrTicketRepositoryRequired = errors.New("ticket repository required")
)
