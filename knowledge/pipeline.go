package knowledge

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/quellwerk/concierge/ai"
	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage"
)

const (
	defaultEmbedBatchSize = 16
	embedMaxAttempts      = 3
	embedBaseDelay        = 500 * time.Millisecond
)

// Document is one source document of a tenant's knowledge base.
type Document struct {
	Title    string
	Path     string
	Category string
	Text     string
}

// Pipeline ingests tenant documents: it chunks their text, embeds the
// chunks in batches, and stores them in the tenant's collection.
// Documents are processed concurrently on a worker pool.
type Pipeline struct {
	chunks    storage.ChunkRepository
	embedder  ai.Embedder
	pool      *ants.Pool
	chunkSize int
	batchSize int
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunkSize sets the target chunk length in runes.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size > 0 {
			p.chunkSize = size
		}
		return nil
	}
}

// WithBatchSize sets how many chunk texts are embedded per provider call.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size > 0 {
			p.batchSize = size
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunks:    chunks,
		embedder:  embedder,
		pool:      pool,
		chunkSize: defaultChunkSize,
		batchSize: defaultEmbedBatchSize,
		logger:    slog.Default().With("component", "knowledge-pipeline"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest chunks, embeds, and stores the given documents for one tenant.
// Documents run concurrently on the worker pool; Ingest returns after all
// of them finished, with the total number of chunks stored and the first
// error encountered.
func (p *Pipeline) Ingest(ctx context.Context, tenantID string, docs ...Document) (int, error) {
	if tenantID == "" {
		return 0, ErrEmptyTenant
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		total    int
		firstErr error
	)

	for _, doc := range docs {
		doc := doc
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			count, err := p.ingestDocument(ctx, tenantID, doc)
			mu.Lock()
			defer mu.Unlock()
			total += count
			if err != nil && firstErr == nil {
				firstErr = err
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	}

	wg.Wait()
	return total, firstErr
}

// Reingest replaces a tenant's entire collection with the given documents.
func (p *Pipeline) Reingest(ctx context.Context, tenantID string, docs ...Document) (int, error) {
	if tenantID == "" {
		return 0, ErrEmptyTenant
	}
	deleted, err := p.chunks.DeleteTenantChunks(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	p.logger.Info("dropped tenant collection for re-ingestion", "tenant", tenantID, "chunks", deleted)
	return p.Ingest(ctx, tenantID, docs...)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func (p *Pipeline) ingestDocument(ctx context.Context, tenantID string, doc Document) (int, error) {
	texts := splitText(doc.Text, p.chunkSize)
	if len(texts) == 0 {
		return 0, ErrEmptyDocument
	}

	source := core.SourceMeta{
		Title:    doc.Title,
		Path:     doc.Path,
		Category: doc.Category,
	}

	stored := 0
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		var vectors [][]float32
		err := ai.RetryWithBackoff(ctx, func() error {
			var embedErr error
			vectors, embedErr = p.embedder.EmbedTexts(ctx, batch)
			return embedErr
		}, embedMaxAttempts, embedBaseDelay)
		if err != nil {
			p.logger.Error("error embedding chunk batch",
				"tenant", tenantID, "doc", doc.Path, "batch", len(batch), "err", err)
			return stored, ai.ClassifyError(err)
		}

		chunks := make([]*core.Chunk, len(batch))
		for i, text := range batch {
			chunks[i] = &core.Chunk{
				TenantID: tenantID,
				ID:       core.IDFromContent(tenantID + ":" + text),
				Text:     text,
				Vector:   NormalizeVector(vectors[i]),
				Source:   source,
			}
		}
		if err := p.chunks.PutChunks(ctx, chunks...); err != nil {
			return stored, err
		}
		stored += len(chunks)
	}

	p.logger.Debug("document ingested", "tenant", tenantID, "doc", doc.Path, "chunks", stored)
	return stored, nil
}
