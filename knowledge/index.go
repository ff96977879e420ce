package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quellwerk/concierge/ai"
	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage"
)

// Index provides semantic search over one-tenant-at-a-time slices of the
// chunk store. Each tenant's chunks form an isolated collection; a query
// for one tenant can never surface another tenant's chunks.
type Index struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// IndexOption configures an Index.
type IndexOption func(*Index) error

// WithIndexLogger sets a custom logger.
// Default is slog.Default().
func WithIndexLogger(logger *slog.Logger) IndexOption {
	return func(idx *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
		return nil
	}
}

// NewIndex creates a new index over the chunk repository.
func NewIndex(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...IndexOption) (*Index, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	idx := &Index{
		chunks:   chunks,
		embedder: embedder,
		logger:   slog.Default().With("component", "knowledge-index"),
	}

	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// Search embeds the query and returns the tenant's chunks scoring at or
// above cutoff, best first, up to limit. Scores are clamped to [0,1].
// Backend failures surface as storage.ErrIndexUnavailable so callers can
// degrade instead of failing the request.
func (idx *Index) Search(ctx context.Context, tenantID, query string, cutoff float32, limit int) ([]core.ScoredChunk, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenant
	}

	vector, err := idx.embedder.EmbedText(ctx, query)
	if err != nil {
		idx.logger.Error("error embedding query", "tenant", tenantID, "err", err)
		return nil, ai.ClassifyError(err)
	}
	vector = NormalizeVector(vector)

	scored, err := idx.chunks.FindSimilar(ctx, tenantID, vector, cutoff, limit)
	if err != nil {
		idx.logger.Error("error querying chunk index", "tenant", tenantID, "err", err)
		return nil, fmt.Errorf("%w: %v", storage.ErrIndexUnavailable, err)
	}

	for i := range scored {
		scored[i].Score = clampScore(scored[i].Score)
	}

	return scored, nil
}

// Upsert stores pre-embedded chunks for a tenant.
func (idx *Index) Upsert(ctx context.Context, chunks ...*core.Chunk) error {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
	}
	if err := idx.chunks.PutChunks(ctx, chunks...); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrIndexUnavailable, err)
	}
	return nil
}

// Delete removes chunks by id within one tenant.
func (idx *Index) Delete(ctx context.Context, tenantID string, ids ...core.ID) error {
	if tenantID == "" {
		return ErrEmptyTenant
	}
	if err := idx.chunks.DeleteChunks(ctx, tenantID, ids...); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrIndexUnavailable, err)
	}
	return nil
}

// DeleteTenant removes a tenant's entire collection, returning the number
// of chunks removed.
func (idx *Index) DeleteTenant(ctx context.Context, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, ErrEmptyTenant
	}
	deleted, err := idx.chunks.DeleteTenantChunks(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrIndexUnavailable, err)
	}
	return deleted, nil
}

func clampScore(score float32) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
