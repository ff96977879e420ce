package knowledge

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyDocument is returned when a document contains no usable text.
	ErrEmptyDocument = errors.New("document has no text")

	// ErrEmptyTenant is returned when a tenant id is not provided.
	ErrEmptyTenant = errors.New("tenant id required")
)
