package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/knowledge"
	"github.com/quellwerk/concierge/tenant"
)

const (
	// DefaultTimeout bounds one retrieval round trip (embedding plus
	// similarity search).
	DefaultTimeout = 5 * time.Second

	// DefaultMaxHits is the number of passages handed to the completion
	// prompt.
	DefaultMaxHits = 5

	// verbatimBoost is added when a chunk contains every query word.
	verbatimBoost = 0.1
)

// Pipeline turns a customer message into ranked knowledge passages for
// one tenant. Relevance cutoffs come from the tenant configuration.
type Pipeline struct {
	index    *knowledge.Index
	registry *tenant.Registry
	timeout  time.Duration
	maxHits  int
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithTimeout bounds each retrieval. Default is DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout > 0 {
			p.timeout = timeout
		}
		return nil
	}
}

// WithMaxHits sets how many passages are returned. Default is DefaultMaxHits.
func WithMaxHits(maxHits int) Option {
	return func(p *Pipeline) error {
		if maxHits > 0 {
			p.maxHits = maxHits
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

// NewPipeline creates a new retrieval pipeline.
func NewPipeline(index *knowledge.Index, registry *tenant.Registry, opts ...Option) (*Pipeline, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	p := &Pipeline{
		index:    index,
		registry: registry,
		timeout:  DefaultTimeout,
		maxHits:  DefaultMaxHits,
		logger:   slog.Default().With("component", "retrieval"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Retrieve returns the tenant's passages relevant to the query, best
// first. An empty result is a valid outcome, not an error: the caller
// answers without knowledge context. Index failures propagate as
// storage.ErrIndexUnavailable.
func (p *Pipeline) Retrieve(ctx context.Context, tenantID, query string) (*core.RetrievalResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, ErrEmptyQuery
	}

	t, err := p.registry.Get(tenantID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	chunks, err := p.index.Search(ctx, tenantID, trimmed, float32(t.RetrievalCutoff), p.maxHits)
	if err != nil {
		return nil, err
	}

	// Verbatim match boost, then restore ranking.
	boosted := false
	for i := range chunks {
		if containsAllQueryWords(chunks[i].Chunk.Text, trimmed) {
			chunks[i].Score += verbatimBoost
			if chunks[i].Score > 1 {
				chunks[i].Score = 1
			}
			boosted = true
		}
	}
	if boosted {
		sort.SliceStable(chunks, func(i, j int) bool {
			return chunks[i].Score > chunks[j].Score
		})
	}

	result := &core.RetrievalResult{
		TenantID: tenantID,
		Query:    trimmed,
		Chunks:   chunks,
	}

	p.logger.Debug("retrieval complete",
		"tenant", tenantID, "hits", len(chunks), "topScore", result.TopScore())

	return result, nil
}
