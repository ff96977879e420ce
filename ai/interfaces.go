package ai

import (
	"context"

	"github.com/quellwerk/concierge/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// CompletionRequest carries everything a Completer needs to draft an answer.
// Brand fields are copied from the tenant configuration so implementations do
// not depend on the tenant package.
type CompletionRequest struct {
	// BrandName is the customer-facing name of the tenant.
	BrandName string

	// BrandVoice describes the tone the answer should be written in.
	BrandVoice string

	// SupportContact is offered to the customer when the agent cannot help.
	SupportContact string

	// Language is the primary answer language (BCP 47 tag, e.g. "de").
	Language string

	// History is the recent conversation, oldest first.
	History []core.Message

	// Context holds retrieved knowledge-base passages the answer must be
	// grounded on. May be empty, in which case the answer is ungrounded.
	Context []string

	// Message is the inbound customer message being answered.
	Message string
}

// Completion is the result of a single completion call.
type Completion struct {
	// Answer is the drafted response text.
	Answer string

	// Confidence is the model's self-reported confidence in [0,1].
	// Zero means the model did not report one; callers then derive
	// confidence from retrieval quality instead.
	Confidence float64

	// Sentiment is the model's read of the exchange in [-1,1], where
	// negative values signal customer distress. Zero means neutral or
	// not reported.
	Sentiment float64
}

// Completer drafts answers using a large language model.
// Implementations must be thread-safe for concurrent use and must classify
// transport failures into the package error taxonomy (ErrRateLimited,
// ErrUnavailable, ErrTimeout) so callers can retry or degrade.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and Completer instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Completer returns the completion service.
	// The returned Completer is safe for concurrent use.
	Completer() Completer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
