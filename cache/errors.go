package cache

import "errors"

var (
	// ErrCacheRepositoryRequired is returned when a cache repository is not provided.
	ErrCacheRepositoryRequired = errors.New("cache repository required")

	// ErrInvalidEntry is returned when an entry misses its tenant or answer.
	ErrInvalidEntry = errors.New("invalid cache entry")
)
