package mock

import (
	"context"
	"fmt"

	"github.com/quellwerk/concierge/ai"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields and supports
// scripting a sequence of errors before success, which the orchestrator
// retry tests rely on.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default deterministic behavior.
	CompleteFunc func(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error)

	// FailWith, when non-nil, is returned as the error for the next
	// FailCount calls before default behavior resumes.
	FailWith  error
	FailCount int

	// Sentiment is attached to default completions. Negative values let
	// tests trigger the sentiment escalation rule.
	Sentiment float64

	callCount int
}

// NewMockCompleter creates a mock completer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockCompleter().
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete drafts a deterministic answer derived from the request, or runs
// the injected behavior.
func (m *MockCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	m.callCount++

	if m.FailCount > 0 && m.FailWith != nil {
		m.FailCount--
		return nil, m.FailWith
	}

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}

	// Default: a stable answer that reflects grounding, so cache and
	// source-count assertions are deterministic.
	answer := fmt.Sprintf("[%s] Antwort auf: %s", req.BrandName, req.Message)
	if len(req.Context) > 0 {
		answer = fmt.Sprintf("%s (basierend auf %d Quellen)", answer, len(req.Context))
	}

	return &ai.Completion{Answer: answer, Sentiment: m.Sentiment}, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockCompleter) Reset() {
	m.callCount = 0
	m.CompleteFunc = nil
	m.FailWith = nil
	m.FailCount = 0
	m.Sentiment = 0
}
