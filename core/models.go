package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored entities (chunks, tickets, fingerprints).
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Role identifies the author of a conversation message.
type Role int

const (
	// RoleCustomer represents the customer side of a conversation.
	RoleCustomer Role = iota + 1
	// RoleAgent represents the automated agent side of a conversation.
	RoleAgent
)

// Message is a single entry in a conversation. Append-only within a Session.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Session holds the state of one conversation for one tenant.
// Exactly one Session exists per (TenantID, SessionID) pair; a session id is
// never resolved across tenants.
type Session struct {
	TenantID       string
	SessionID      string
	CustomerID     string
	CreatedAt      time.Time
	LastActivityAt time.Time
	Messages       []Message
}

// Append adds a message to the session and advances the activity timestamp.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	if msg.Timestamp.After(s.LastActivityAt) {
		s.LastActivityAt = msg.Timestamp
	}
}

// Recent returns the most recent max messages in chronological order.
// If max <= 0 or exceeds the history length, all messages are returned.
func (s *Session) Recent(max int) []Message {
	if max <= 0 || max >= len(s.Messages) {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-max:]
}

// IdleSince reports whether the session has been inactive for at least ttl at
// the given instant.
func (s *Session) IdleSince(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivityAt) >= ttl
}

// SourceMeta describes where a knowledge chunk came from.
type SourceMeta struct {
	Title    string
	Path     string
	Category string
}

// Chunk is an immutable piece of a tenant's knowledge base.
// Chunks are replaced only by re-ingesting the source document.
type Chunk struct {
	TenantID   string
	ID         ID
	Text       string
	Vector     []float32
	Source     SourceMeta
	InsertedAt time.Time
}

// ScoredChunk pairs a chunk with its relevance to a query, in [0,1].
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

// RetrievalResult holds ranked relevant passages for one query.
// Ephemeral, never persisted.
type RetrievalResult struct {
	TenantID string
	Query    string
	Chunks   []ScoredChunk
}

// Empty reports whether no chunks passed the relevance cutoff.
func (r *RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// TopScore returns the highest relevance score, or 0 for an empty result.
func (r *RetrievalResult) TopScore() float32 {
	if len(r.Chunks) == 0 {
		return 0
	}
	return r.Chunks[0].Score
}

// Escalation reasons, in classifier priority order.
const (
	ReasonKeyword         = "keyword"
	ReasonLowConfidence   = "low_confidence"
	ReasonSentiment       = "sentiment"
	ReasonProviderFailure = "provider_failure"
)

// EscalationVerdict is the outcome of scoring a message/response exchange
// for required human handoff. Ephemeral, attached to the response.
type EscalationVerdict struct {
	Required      bool
	Reason        string
	Score         float64
	TriggeredRule string
}

// CacheEntry maps a request fingerprint to a previously generated answer.
// The fingerprint always includes the tenant id as its first component, so
// entries can never be shared across tenants.
type CacheEntry struct {
	Fingerprint ID
	TenantID    string
	Answer      string
	Sources     []SourceMeta
	CreatedAt   time.Time
	TTL         time.Duration
}

// TicketPriority orders escalation tickets for human pickup.
type TicketPriority int

const (
	PriorityLow TicketPriority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

// TicketStatus tracks the lifecycle of an escalation ticket.
type TicketStatus int

const (
	TicketPending TicketStatus = iota + 1
	TicketAssigned
	TicketResolved
)

// Ticket is the handoff record produced when a conversation escalates to a
// human operator. The ticketing transport consumes it as-is.
type Ticket struct {
	ID             ID
	TenantID       string
	SessionID      string
	Reason         string
	Priority       TicketPriority
	Status         TicketStatus
	Department     string
	AssignedTo     string
	TriggerMessage string
	Transcript     []Message
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Assign marks the ticket as taken by an operator.
func (t *Ticket) Assign(operator string) {
	t.AssignedTo = operator
	t.Status = TicketAssigned
	t.UpdatedAt = time.Now().UTC()
}

// Resolve marks the ticket as handled.
func (t *Ticket) Resolve() {
	t.Status = TicketResolved
	t.UpdatedAt = time.Now().UTC()
}
