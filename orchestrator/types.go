package orchestrator

import (
	"strings"

	"github.com/quellwerk/concierge/core"
)

// Request is one customer turn addressed to one brand.
type Request struct {
	Brand      string `json:"brand"`
	Message    string `json:"message"`
	SessionID  string `json:"session_id"`
	CustomerID string `json:"customer_id,omitempty"`
}

// Validate checks the request's required fields.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Brand) == "" ||
		strings.TrimSpace(r.SessionID) == "" ||
		strings.TrimSpace(r.Message) == "" {
		return ErrInvalidRequest
	}
	return nil
}

// Source describes one knowledge passage that backed the answer.
type Source struct {
	Title     string  `json:"title"`
	Relevance float32 `json:"relevance"`
}

// Response is the agent's reply for one turn.
type Response struct {
	Response           string   `json:"response"`
	SessionID          string   `json:"session_id"`
	Confidence         float64  `json:"confidence"`
	EscalationRequired bool     `json:"escalation_required"`
	EscalationReason   string   `json:"escalation_reason,omitempty"`
	ProcessingTime     float64  `json:"processing_time"`
	Sources            []Source `json:"sources"`
	Cached             bool     `json:"cached,omitempty"`
	TicketID           uint64   `json:"ticket_id,omitempty"`
}

func sourcesFromChunks(chunks []core.ScoredChunk) []Source {
	sources := make([]Source, 0, len(chunks))
	for _, sc := range chunks {
		title := sc.Chunk.Source.Title
		if title == "" {
			title = sc.Chunk.Source.Path
		}
		sources = append(sources, Source{Title: title, Relevance: sc.Score})
	}
	return sources
}

func sourceMetasFromChunks(chunks []core.ScoredChunk) []core.SourceMeta {
	metas := make([]core.SourceMeta, 0, len(chunks))
	for _, sc := range chunks {
		metas = append(metas, sc.Chunk.Source)
	}
	return metas
}
