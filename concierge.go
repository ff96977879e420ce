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


// Package concierge assembles the multi-tenant support agent: tenant
// registry, knowledge index, session store, response cache, escalation
// handling, and the turn orchestrator, all over one embedded store.
package concierge

import (
	"context"
	"log/slog"
	"time"

	"github.com/quellwerk/concierge/ai"
	"github.com/quellwerk/concierge/ai/openai"
	"github.com/quellwerk/concierge/cache"
	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/escalation"
	"github.com/quellwerk/concierge/knowledge"
	"github.com/quellwerk/concierge/orchestrator"
	"github.com/quellwerk/concierge/retrieval"
	"github.com/quellwerk/concierge/session"
	"github.com/quellwerk/concierge/storage/badger"
	"github.com/quellwerk/concierge/tenant"
)

// DefaultSweepInterval is how often idle sessions are expired.
const DefaultSweepInterval = 5 * time.Minute

// Engine is the assembled support agent for all configured tenants.
type Engine struct {
	repos        *badger.Repositories
	registry     *tenant.Registry
	provider     ai.Provider
	ingest       *knowledge.Pipeline
	sessions     *session.Store
	escalation   *escalation.Manager
	cache        *cache.Cache
	orchestrator *orchestrator.Orchestrator
	stopSweeper  context.CancelFunc
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	provider      ai.Provider
	registry      *tenant.Registry
	inMemory      bool
	sweepInterval time.Duration
	orchOpts      []orchestrator.Option
}

// WithAIConfig sets the OpenAI-compatible provider configuration.
// Ignored when WithProvider is used.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// client setup. Tests use this with the mock provider.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithRegistry injects a pre-built tenant registry, bypassing the tenant
// directory load.
func WithRegistry(registry *tenant.Registry) EngineOption {
	return func(o *engineOptions) {
		o.registry = registry
	}
}

// WithInMemoryStorage keeps all state in memory. Nothing survives Close.
func WithInMemoryStorage() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithSweepInterval sets the idle session sweep interval. Zero or
// negative disables the sweeper. Default is DefaultSweepInterval.
func WithSweepInterval(interval time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.sweepInterval = interval
	}
}

// WithOrchestratorOptions forwards options to the turn orchestrator.
func WithOrchestratorOptions(opts ...orchestrator.Option) EngineOption {
	return func(o *engineOptions) {
		o.orchOpts = append(o.orchOpts, opts...)
	}
}

// Open assembles an engine over the database at dbPath with the tenant
// configurations from tenantDir. tenantDir may be empty when WithRegistry
// is used.
func Open(dbPath, tenantDir string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:      ai.DefaultConfig(),
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(options)
	}

	registry := options.registry
	if registry == nil {
		loaded, err := tenant.LoadRegistry(tenantDir)
		if err != nil {
			return nil, err
		}
		registry = loaded
	}

	backend, err := badger.OpenBackend(dbPath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	index, err := knowledge.NewIndex(repos.Chunks, provider.Embedder())
	if err != nil {
		repos.Close()
		return nil, err
	}

	ingest, err := knowledge.NewPipeline(repos.Chunks, provider.Embedder())
	if err != nil {
		repos.Close()
		return nil, err
	}

	retrievalPipeline, err := retrieval.NewPipeline(index, registry)
	if err != nil {
		ingest.Release()
		repos.Close()
		return nil, err
	}

	sessions, err := session.NewStore(repos.Sessions, registry)
	if err != nil {
		ingest.Release()
		repos.Close()
		return nil, err
	}

	manager, err := escalation.NewManager(repos.Tickets)
	if err != nil {
		ingest.Release()
		repos.Close()
		return nil, err
	}

	responseCache, err := cache.New(repos.Cache)
	if err != nil {
		ingest.Release()
		repos.Close()
		return nil, err
	}

	orch, err := orchestrator.New(registry, sessions, retrievalPipeline,
		provider.Completer(), manager, responseCache, options.orchOpts...)
	if err != nil {
		ingest.Release()
		repos.Close()
		return nil, err
	}

	engine := &Engine{
		repos:        repos,
		registry:     registry,
		provider:     provider,
		ingest:       ingest,
		sessions:     sessions,
		escalation:   manager,
		cache:        responseCache,
		orchestrator: orch,
		logger:       slog.Default().With("component", "engine"),
	}

	if options.sweepInterval > 0 {
		sweepCtx, cancel := context.WithCancel(context.Background())
		engine.stopSweeper = cancel
		sessions.StartSweeper(sweepCtx, options.sweepInterval)
	}

	return engine, nil
}

// Close stops the sweeper and releases all resources. In-flight async
// turns finish first.
func (e *Engine) Close() error {
	if e.stopSweeper != nil {
		e.stopSweeper()
	}
	e.orchestrator.Close()
	e.ingest.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	return e.repos.Close()
}

// Process handles one customer turn synchronously.
func (e *Engine) Process(ctx context.Context, req *orchestrator.Request) (*orchestrator.Response, error) {
	return e.orchestrator.Process(ctx, req)
}

// ProcessAsync handles one customer turn on the worker pool.
func (e *Engine) ProcessAsync(ctx context.Context, req *orchestrator.Request, callback func(*orchestrator.Response, error)) error {
	return e.orchestrator.ProcessAsync(ctx, req, callback)
}

// Ingest adds documents to a tenant's knowledge base.
func (e *Engine) Ingest(ctx context.Context, tenantID string, docs ...knowledge.Document) (int, error) {
	if _, err := e.registry.Get(tenantID); err != nil {
		return 0, err
	}
	return e.ingest.Ingest(ctx, tenantID, docs...)
}

// Reingest replaces a tenant's knowledge base and invalidates the
// tenant's cached answers, which were grounded on the old content.
func (e *Engine) Reingest(ctx context.Context, tenantID string, docs ...knowledge.Document) (int, error) {
	if _, err := e.registry.Get(tenantID); err != nil {
		return 0, err
	}

	count, err := e.ingest.Reingest(ctx, tenantID, docs...)
	if err != nil {
		return count, err
	}

	if _, err := e.cache.InvalidateTenant(ctx, tenantID); err != nil {
		e.logger.Warn("invalidating tenant cache failed", "tenant", tenantID, "err", err)
	}
	return count, nil
}

// History returns the most recent max messages of a conversation in
// chronological order. max <= 0 returns the full history.
func (e *Engine) History(ctx context.Context, tenantID, sessionID string, max int) ([]core.Message, error) {
	return e.sessions.History(ctx, tenantID, sessionID, max)
}

// DeleteSession removes a conversation and its full history.
func (e *Engine) DeleteSession(ctx context.Context, tenantID, sessionID string) error {
	return e.sessions.Delete(ctx, tenantID, sessionID)
}

// ExpireIdleSessions runs one idle sweep immediately.
func (e *Engine) ExpireIdleSessions(ctx context.Context) (int, error) {
	return e.sessions.ExpireIdle(ctx, time.Now().UTC())
}

// PendingTickets lists a tenant's open escalation tickets in pickup
// order, most urgent first. An empty tenantID lists across all tenants.
func (e *Engine) PendingTickets(ctx context.Context, tenantID string) ([]*core.Ticket, error) {
	return e.escalation.Pending(ctx, tenantID)
}

// AssignTicket marks a ticket as taken by an operator.
func (e *Engine) AssignTicket(ctx context.Context, id core.ID, operator string) (*core.Ticket, error) {
	return e.escalation.Assign(ctx, id, operator)
}

// ResolveTicket marks a ticket as handled.
func (e *Engine) ResolveTicket(ctx context.Context, id core.ID) (*core.Ticket, error) {
	return e.escalation.Resolve(ctx, id)
}

// Registry exposes the tenant configuration.
func (e *Engine) Registry() *tenant.Registry {
	return e.registry
}
