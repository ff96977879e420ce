package storage

import (
	"context"
	"time"

	"github.com/quellwerk/concierge/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// SessionRepository persists conversation sessions, keyed by
// (tenantID, sessionID). A session id is never resolved across tenants.
type SessionRepository interface {
	Repository

	// PutSession stores or replaces a session.
	PutSession(ctx context.Context, session *core.Session) error

	// GetSession retrieves a session by tenant and session id.
	// Returns ErrNotFound if no such session exists.
	GetSession(ctx context.Context, tenantID, sessionID string) (*core.Session, error)

	// DeleteSession removes a session and its full message history.
	// Returns ErrNotFound if no such session exists.
	DeleteSession(ctx context.Context, tenantID, sessionID string) error

	// ListIdleSessions returns (tenantID, sessionID) pairs of sessions whose
	// last activity is at or before the cutoff for their tenant. The cutoff
	// per tenant is now minus that tenant's TTL; ttls maps tenant id to TTL.
	ListIdleSessions(ctx context.Context, now time.Time, ttls map[string]time.Duration) ([]SessionRef, error)
}

// SessionRef identifies one stored session.
type SessionRef struct {
	TenantID  string
	SessionID string
}

// ChunkRepository persists knowledge base chunks, partitioned by tenant.
type ChunkRepository interface {
	Repository

	// PutChunks stores one or more chunks. Chunk IDs are content-based, so
	// re-ingesting the same text overwrites in place.
	// Sets InsertedAt if not already set.
	PutChunks(ctx context.Context, chunks ...*core.Chunk) error

	// GetChunk retrieves a single chunk by tenant and id.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, tenantID string, id core.ID) (*core.Chunk, error)

	// DeleteChunks removes chunks by their IDs within one tenant.
	// Missing IDs are ignored.
	DeleteChunks(ctx context.Context, tenantID string, ids ...core.ID) error

	// DeleteTenantChunks removes every chunk belonging to the tenant.
	// Returns the number of chunks removed.
	DeleteTenantChunks(ctx context.Context, tenantID string) (int, error)

	// FindSimilar finds chunks of one tenant similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first). Never crosses tenants.
	FindSimilar(ctx context.Context, tenantID string, vector []float32, minSimilarity float32, limit int) ([]core.ScoredChunk, error)
}

// CacheRepository is the persistent tier of the response cache.
// Entries expire server-side via their TTL.
type CacheRepository interface {
	Repository

	// PutCacheEntry stores an entry under its fingerprint with its TTL.
	PutCacheEntry(ctx context.Context, entry *core.CacheEntry) error

	// GetCacheEntry retrieves an entry by fingerprint.
	// Returns ErrNotFound for absent or expired entries.
	GetCacheEntry(ctx context.Context, fingerprint core.ID) (*core.CacheEntry, error)

	// DeleteTenantEntries removes all cached entries for one tenant.
	// Returns the number of entries removed.
	DeleteTenantEntries(ctx context.Context, tenantID string) (int, error)
}

// TicketRepository persists escalation tickets for human pickup.
type TicketRepository interface {
	Repository

	// PutTicket stores or replaces a ticket.
	PutTicket(ctx context.Context, ticket *core.Ticket) error

	// GetTicket retrieves a ticket by id.
	// Returns ErrNotFound if the ticket doesn't exist.
	GetTicket(ctx context.Context, id core.ID) (*core.Ticket, error)

	// ListTickets returns tickets, optionally filtered by tenant and status.
	// Pass an empty tenantID to list across tenants and status 0 for any
	// status. Results are ordered by priority descending, then by creation
	// time ascending.
	ListTickets(ctx context.Context, tenantID string, status core.TicketStatus) ([]*core.Ticket, error)
}
