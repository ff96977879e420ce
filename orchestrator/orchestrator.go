// Copyright 2026 Quellwerk Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package orchestrator drives one conversation turn end to end: session
// handling, cache lookup, knowledge retrieval, answer generation, and the
// escalation decision. A customer always gets a response; infrastructure
// failures degrade the answer instead of failing the turn.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/quellwerk/concierge/ai"
	"github.com/quellwerk/concierge/cache"
	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/escalation"
	"github.com/quellwerk/concierge/retrieval"
	"github.com/quellwerk/concierge/session"
	"github.com/quellwerk/concierge/tenant"
)

const (
	// DefaultCompletionTimeout bounds one answer generation including
	// retries.
	DefaultCompletionTimeout = 30 * time.Second

	// DefaultMaxAttempts is how often a failed completion is retried
	// before the turn degrades to the fallback answer.
	DefaultMaxAttempts = 3

	// DefaultRetryBaseDelay is the initial completion retry backoff.
	DefaultRetryBaseDelay = 500 * time.Millisecond

	// DefaultHistoryLimit is how many trailing messages feed the
	// completion prompt.
	DefaultHistoryLimit = 10

	// DefaultPoolSize bounds concurrently processed async turns.
	DefaultPoolSize = 32
)

// Orchestrator processes conversation turns for all tenants. Turns of the
// same session are serialized via the session token; turns of different
// sessions proceed concurrently.
type Orchestrator struct {
	registry   *tenant.Registry
	sessions   *session.Store
	retrieval  *retrieval.Pipeline
	completer  ai.Completer
	escalation *escalation.Manager
	cache      *cache.Cache
	pool       *ants.Pool

	completionTimeout time.Duration
	maxAttempts       int
	retryBaseDelay    time.Duration
	historyLimit      int
	logger            *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithCompletionTimeout bounds answer generation per turn.
// Default is DefaultCompletionTimeout.
func WithCompletionTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) error {
		if timeout > 0 {
			o.completionTimeout = timeout
		}
		return nil
	}
}

// WithMaxAttempts sets the completion retry budget.
// Default is DefaultMaxAttempts.
func WithMaxAttempts(attempts int) Option {
	return func(o *Orchestrator) error {
		if attempts > 0 {
			o.maxAttempts = attempts
		}
		return nil
	}
}

// WithRetryBaseDelay sets the initial completion retry backoff.
// Default is DefaultRetryBaseDelay.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(o *Orchestrator) error {
		if delay > 0 {
			o.retryBaseDelay = delay
		}
		return nil
	}
}

// WithHistoryLimit sets how much history the completion prompt carries.
// Default is DefaultHistoryLimit.
func WithHistoryLimit(limit int) Option {
	return func(o *Orchestrator) error {
		if limit > 0 {
			o.historyLimit = limit
		}
		return nil
	}
}

// WithPoolSize sets the async worker pool size.
// Default is DefaultPoolSize.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) error {
		if size > 0 {
			o.pool.Release()
			pool, err := ants.NewPool(size, ants.WithNonblocking(false))
			if err != nil {
				return fmt.Errorf("creating worker pool: %w", err)
			}
			o.pool = pool
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// New creates a new orchestrator over the given collaborators.
func New(
	registry *tenant.Registry,
	sessions *session.Store,
	retrievalPipeline *retrieval.Pipeline,
	completer ai.Completer,
	escalationManager *escalation.Manager,
	responseCache *cache.Cache,
	opts ...Option,
) (*Orchestrator, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if sessions == nil {
		return nil, ErrSessionStoreRequired
	}
	if retrievalPipeline == nil {
		return nil, ErrRetrievalRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if escalationManager == nil {
		return nil, ErrEscalationRequired
	}
	if responseCache == nil {
		return nil, ErrCacheRequired
	}

	pool, err := ants.NewPool(DefaultPoolSize, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}

	o := &Orchestrator{
		registry:          registry,
		sessions:          sessions,
		retrieval:         retrievalPipeline,
		completer:         completer,
		escalation:        escalationManager,
		cache:             responseCache,
		pool:              pool,
		completionTimeout: DefaultCompletionTimeout,
		maxAttempts:       DefaultMaxAttempts,
		retryBaseDelay:    DefaultRetryBaseDelay,
		historyLimit:      DefaultHistoryLimit,
		logger:            slog.Default().With("component", "orchestrator"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			pool.Release()
			return nil, err
		}
	}

	return o, nil
}

// Process handles one customer turn and always returns a response for a
// valid request on a known tenant. The session token is held for the whole
// turn, so two turns of the same session can never interleave.
func (o *Orchestrator) Process(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	if req == nil {
		return nil, ErrInvalidRequest
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	t, err := o.registry.Get(req.Brand)
	if err != nil {
		return nil, err
	}

	release := o.sessions.Acquire(t.ID, req.SessionID)
	defer release()

	sess, err := o.sessions.GetOrCreate(ctx, t.ID, req.SessionID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	// Snapshot before this turn's messages: the fingerprint and the
	// prompt both use the history as the customer saw it.
	history := append([]core.Message(nil), sess.Messages...)

	if _, err := o.sessions.Append(ctx, t.ID, req.SessionID, core.Message{
		Role:      core.RoleCustomer,
		Content:   req.Message,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	// Keyword escalations skip generation entirely: the customer named a
	// problem that always goes to a human.
	if _, hit := t.HasKeyword(req.Message); hit {
		verdict := escalation.Evaluate(t, escalation.Signal{Message: req.Message, Confidence: 1})
		return o.escalate(ctx, t, req, verdict, escalation.HandoffMessage(t), nil, start)
	}

	fp := cache.Fingerprint(t.ID, retrieval.Normalize(req.Message), cache.HistoryDigest(history))
	if entry, ok := o.cache.Lookup(ctx, fp); ok {
		return o.respondCached(ctx, t, req, entry, start)
	}

	// Retrieval failures degrade to answering without knowledge context.
	var chunks []core.ScoredChunk
	result, err := o.retrieval.Retrieve(ctx, t.ID, req.Message)
	if err != nil {
		o.logger.Warn("retrieval unavailable, answering without context",
			"tenant", t.ID, "session", req.SessionID, "err", err)
	} else {
		chunks = result.Chunks
	}

	completion, err := o.complete(ctx, t, history, chunks, req.Message)
	if err != nil {
		o.logger.Error("completion failed after retries",
			"tenant", t.ID, "session", req.SessionID, "err", ai.ClassifyError(err))
		verdict := core.EscalationVerdict{
			Required:      true,
			Reason:        core.ReasonProviderFailure,
			Score:         1.0,
			TriggeredRule: "completion failed",
		}
		return o.escalate(ctx, t, req, verdict, escalation.FallbackMessage(t), chunks, start)
	}

	confidence := completion.Confidence
	if confidence <= 0 {
		confidence = deriveConfidence(len(chunks))
	}

	verdict := escalation.Evaluate(t, escalation.Signal{
		Message:    req.Message,
		Answer:     completion.Answer,
		Confidence: confidence,
		Sentiment:  completion.Sentiment,
	})
	if verdict.Required {
		answer := completion.Answer + "\n\n" + escalation.HandoffMessage(t)
		resp, err := o.escalate(ctx, t, req, verdict, answer, chunks, start)
		if err != nil {
			return nil, err
		}
		resp.Confidence = confidence
		return resp, nil
	}

	if _, err := o.sessions.Append(ctx, t.ID, req.SessionID, core.Message{
		Role:      core.RoleAgent,
		Content:   completion.Answer,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	// Only non-escalated answers are worth replaying. Store degrades on
	// its own; an error here is a programming error, not a cache failure.
	if err := o.cache.Store(ctx, &core.CacheEntry{
		Fingerprint: fp,
		TenantID:    t.ID,
		Answer:      completion.Answer,
		Sources:     sourceMetasFromChunks(chunks),
		CreatedAt:   time.Now().UTC(),
		TTL:         t.CacheTTL,
	}); err != nil {
		o.logger.Warn("caching answer failed", "tenant", t.ID, "err", err)
	}

	o.logger.Info("turn complete",
		"tenant", t.ID, "session", req.SessionID,
		"sources", len(chunks), "confidence", confidence,
		"duration", time.Since(start))

	return &Response{
		Response:       completion.Answer,
		SessionID:      req.SessionID,
		Confidence:     confidence,
		ProcessingTime: time.Since(start).Seconds(),
		Sources:        sourcesFromChunks(chunks),
	}, nil
}

// ProcessAsync runs Process on the worker pool and hands the outcome to
// the callback. Returns an error only if the turn could not be submitted.
func (o *Orchestrator) ProcessAsync(ctx context.Context, req *Request, callback func(*Response, error)) error {
	return o.pool.Submit(func() {
		callback(o.Process(ctx, req))
	})
}

// Close releases the worker pool. In-flight turns finish first.
func (o *Orchestrator) Close() {
	o.pool.Release()
}

// complete generates an answer with bounded retries. All completion
// failures are retryable at this level; the taxonomy decides backoff
// handling upstream of the provider.
func (o *Orchestrator) complete(ctx context.Context, t *tenant.Tenant, history []core.Message, chunks []core.ScoredChunk, message string) (*ai.Completion, error) {
	passages := make([]string, 0, len(chunks))
	for _, sc := range chunks {
		passages = append(passages, sc.Chunk.Text)
	}
	if limit := o.historyLimit; len(history) > limit {
		history = history[len(history)-limit:]
	}

	creq := ai.CompletionRequest{
		BrandName:      t.DisplayName,
		BrandVoice:     t.BrandVoice,
		SupportContact: t.SupportContact,
		Language:       t.Language,
		History:        history,
		Context:        passages,
		Message:        message,
	}

	ctx, cancel := context.WithTimeout(ctx, o.completionTimeout)
	defer cancel()

	var completion *ai.Completion
	err := ai.RetryWithBackoff(ctx, func() error {
		c, err := o.completer.Complete(ctx, creq)
		if err != nil {
			return err
		}
		completion = c
		return nil
	}, o.maxAttempts, o.retryBaseDelay)
	if err != nil {
		return nil, err
	}
	return completion, nil
}

// escalate finishes a turn that goes to a human: the answer is appended to
// the session, a ticket is filed over the full transcript, and the
// response flags the handoff. A ticket write failure is logged but does
// not fail the turn; the customer already has the answer.
func (o *Orchestrator) escalate(ctx context.Context, t *tenant.Tenant, req *Request, verdict core.EscalationVerdict, answer string, chunks []core.ScoredChunk, start time.Time) (*Response, error) {
	sess, err := o.sessions.Append(ctx, t.ID, req.SessionID, core.Message{
		Role:      core.RoleAgent,
		Content:   answer,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Response:           answer,
		SessionID:          req.SessionID,
		EscalationRequired: true,
		EscalationReason:   verdict.Reason,
		ProcessingTime:     time.Since(start).Seconds(),
		Sources:            sourcesFromChunks(chunks),
	}

	ticket, err := o.escalation.Escalate(ctx, sess, verdict, req.Message)
	if err != nil {
		o.logger.Error("filing escalation ticket failed",
			"tenant", t.ID, "session", req.SessionID, "reason", verdict.Reason, "err", err)
	} else {
		resp.TicketID = uint64(ticket.ID)
	}

	return resp, nil
}

// respondCached finishes a turn from a cached answer. The escalation
// classifier never fired for the cached exchange, so it cannot fire for
// this identical one either.
func (o *Orchestrator) respondCached(ctx context.Context, t *tenant.Tenant, req *Request, entry *core.CacheEntry, start time.Time) (*Response, error) {
	if _, err := o.sessions.Append(ctx, t.ID, req.SessionID, core.Message{
		Role:      core.RoleAgent,
		Content:   entry.Answer,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	sources := make([]Source, 0, len(entry.Sources))
	for _, meta := range entry.Sources {
		title := meta.Title
		if title == "" {
			title = meta.Path
		}
		sources = append(sources, Source{Title: title})
	}

	o.logger.Info("turn served from cache",
		"tenant", t.ID, "session", req.SessionID, "duration", time.Since(start))

	return &Response{
		Response:       entry.Answer,
		SessionID:      req.SessionID,
		Confidence:     deriveConfidence(len(entry.Sources)),
		ProcessingTime: time.Since(start).Seconds(),
		Sources:        sources,
		Cached:         true,
	}, nil
}

// deriveConfidence estimates answer confidence from retrieval quality when
// the model does not self-report one.
func deriveConfidence(sources int) float64 {
	confidence := 0.3 + 0.2*float64(sources)
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}
