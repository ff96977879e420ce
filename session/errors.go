package session

import "errors"

var (
	// ErrSessionRepositoryRequired is returned when a session repository is not provided.
	ErrSessionRepositoryRequired = errors.New("session repository required")

	// ErrRegistryRequired is returned when a tenant registry is not provided.
	ErrRegistryRequired = errors.New("tenant registry required")
)
