package retrieval

import "errors"

var (
	// ErrIndexRequired is returned when a knowledge index is not provided.
	ErrIndexRequired = errors.New("knowledge index required")

	// ErrRegistryRequired is returned when a tenant registry is not provided.
	ErrRegistryRequired = errors.New("tenant registry required")

	// ErrEmptyQuery is returned when the query is empty after trimming.
	ErrEmptyQuery = errors.New("empty query")
)
