package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/quellwerk/concierge/ai"
	"github.com/quellwerk/concierge/ai/mock"
	"github.com/quellwerk/concierge/cache"
	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/escalation"
	"github.com/quellwerk/concierge/knowledge"
	"github.com/quellwerk/concierge/retrieval"
	"github.com/quellwerk/concierge/session"
	"github.com/quellwerk/concierge/storage/badger"
	"github.com/quellwerk/concierge/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	orch      *Orchestrator
	completer *mock.MockCompleter
	embedder  *mock.MockEmbedder
	sessions  *session.Store
	ingest    *knowledge.Pipeline
	repos     *badger.Repositories
	registry  *tenant.Registry
}

// newTestEnv wires the full turn-processing stack over in-memory storage.
// The test tenants use a low escalation threshold so ungrounded answers
// (derived confidence 0.3) pass without escalating.
func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	registry, err := tenant.NewRegistry(
		&tenant.Tenant{
			ID:                  "heine",
			DisplayName:         "Heine",
			EscalationThreshold: 0.25,
			EscalationKeywords:  []string{"beschwerde", "anwalt"},
			SupportContact:      "service@heine.example",
			Language:            "de",
		},
		&tenant.Tenant{
			ID:                  "subbrand1",
			DisplayName:         "Subbrand One",
			EscalationThreshold: 0.25,
			Language:            "en",
		},
	)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	completer := mock.NewMockCompleter()

	index, err := knowledge.NewIndex(repos.Chunks, embedder)
	require.NoError(t, err)

	ingest, err := knowledge.NewPipeline(repos.Chunks, embedder)
	require.NoError(t, err)

	retrievalPipeline, err := retrieval.NewPipeline(index, registry)
	require.NoError(t, err)

	sessions, err := session.NewStore(repos.Sessions, registry)
	require.NoError(t, err)

	manager, err := escalation.NewManager(repos.Tickets)
	require.NoError(t, err)

	responseCache, err := cache.New(repos.Cache)
	require.NoError(t, err)

	orch, err := New(registry, sessions, retrievalPipeline, completer, manager, responseCache,
		append([]Option{WithRetryBaseDelay(time.Millisecond)}, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() {
		orch.Close()
		ingest.Release()
		repos.Close()
	})

	return &testEnv{
		orch:      orch,
		completer: completer,
		embedder:  embedder,
		sessions:  sessions,
		ingest:    ingest,
		repos:     repos,
		registry:  registry,
	}
}

func TestProcess_AnswersAndPersistsTurn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.orch.Process(ctx, &Request{
		Brand:      "heine",
		Message:    "Welche Zahlungsarten bieten Sie?",
		SessionID:  "s-1",
		CustomerID: "c-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Response)
	assert.Equal(t, "s-1", resp.SessionID)
	assert.False(t, resp.EscalationRequired)
	assert.Greater(t, resp.Confidence, 0.0)
	assert.GreaterOrEqual(t, resp.ProcessingTime, 0.0)

	history, err := env.sessions.History(ctx, "heine", "s-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleCustomer, history[0].Role)
	assert.Equal(t, "Welche Zahlungsarten bieten Sie?", history[0].Content)
	assert.Equal(t, core.RoleAgent, history[1].Role)
	assert.Equal(t, resp.Response, history[1].Content)
}

func TestProcess_InvalidRequest(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orch.Process(context.Background(), &Request{Brand: "heine", SessionID: "s-1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = env.orch.Process(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestProcess_UnknownTenant(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orch.Process(context.Background(), &Request{
		Brand:     "nobody",
		Message:   "Hallo",
		SessionID: "s-1",
	})
	assert.ErrorIs(t, err, tenant.ErrUnknownTenant)
}

func TestProcess_GroundedAnswerCarriesSources(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ingest.Ingest(ctx, "heine", knowledge.Document{
		Title: "Versand und Lieferung",
		Path:  "versand.md",
		Text:  "Der Versand innerhalb Deutschlands kostet 5,95 Euro und dauert zwei bis vier Werktage.",
	})
	require.NoError(t, err)

	resp, err := env.orch.Process(ctx, &Request{
		Brand:     "heine",
		Message:   "Wie lange dauert der Versand?",
		SessionID: "s-1",
	})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Sources)
	assert.Equal(t, "Versand und Lieferung", resp.Sources[0].Title)
	assert.Greater(t, resp.Sources[0].Relevance, float32(0))
	assert.False(t, resp.EscalationRequired)
}

func TestProcess_KeywordEscalation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.orch.Process(ctx, &Request{
		Brand:     "heine",
		Message:   "Ich werde meinen Anwalt einschalten!",
		SessionID: "s-1",
	})
	require.NoError(t, err)

	assert.True(t, resp.EscalationRequired)
	assert.Equal(t, core.ReasonKeyword, resp.EscalationReason)
	assert.NotZero(t, resp.TicketID)
	assert.Contains(t, resp.Response, "Serviceteam")
	assert.Contains(t, resp.Response, "service@heine.example")

	// The model is never consulted for a keyword escalation.
	assert.Zero(t, env.completer.CallCount())

	// Same message, same verdict, every time.
	resp2, err := env.orch.Process(ctx, &Request{
		Brand:     "heine",
		Message:   "Ich werde meinen Anwalt einschalten!",
		SessionID: "s-2",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.EscalationReason, resp2.EscalationReason)
	assert.Equal(t, resp.Response, resp2.Response)

	ticket, err := env.repos.Tickets.GetTicket(ctx, core.ID(resp.TicketID))
	require.NoError(t, err)
	assert.Equal(t, core.PriorityHigh, ticket.Priority)
	assert.Equal(t, "beschwerden", ticket.Department)
	assert.NotEmpty(t, ticket.Transcript)
}

func TestProcess_LowConfidenceEscalation(t *testing.T) {
	env := newTestEnv(t)

	env.completer.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
		return &ai.Completion{Answer: "Vielleicht hilft das weiter.", Confidence: 0.1}, nil
	}

	resp, err := env.orch.Process(context.Background(), &Request{
		Brand:     "heine",
		Message:   "Ist das Kleid aus Bio-Baumwolle?",
		SessionID: "s-1",
	})
	require.NoError(t, err)

	assert.True(t, resp.EscalationRequired)
	assert.Equal(t, core.ReasonLowConfidence, resp.EscalationReason)
	assert.Equal(t, 0.1, resp.Confidence)
	// The draft stays visible; the handoff note follows it.
	assert.Contains(t, resp.Response, "Vielleicht hilft das weiter.")
	assert.Contains(t, resp.Response, "Serviceteam")
}

func TestProcess_SentimentEscalation(t *testing.T) {
	env := newTestEnv(t)

	env.completer.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
		return &ai.Completion{Answer: "Das tut mir sehr leid.", Confidence: 0.9, Sentiment: -0.8}, nil
	}

	resp, err := env.orch.Process(context.Background(), &Request{
		Brand:     "heine",
		Message:   "Das ist jetzt das dritte Mal, dass die Lieferung kaputt ankommt!",
		SessionID: "s-1",
	})
	require.NoError(t, err)

	assert.True(t, resp.EscalationRequired)
	assert.Equal(t, core.ReasonSentiment, resp.EscalationReason)
	assert.NotZero(t, resp.TicketID)
}

func TestProcess_ProviderFailure_FallsBackAndEscalates(t *testing.T) {
	env := newTestEnv(t)

	env.completer.FailWith = ai.ErrUnavailable
	env.completer.FailCount = 100

	resp, err := env.orch.Process(context.Background(), &Request{
		Brand:     "heine",
		Message:   "Gibt es das Sofa auch in Grau?",
		SessionID: "s-1",
	})
	require.NoError(t, err)

	assert.True(t, resp.EscalationRequired)
	assert.Equal(t, core.ReasonProviderFailure, resp.EscalationReason)
	assert.Contains(t, resp.Response, "Es tut mir leid")
	assert.NotZero(t, resp.TicketID)
	assert.Equal(t, DefaultMaxAttempts, env.completer.CallCount())

	ticket, err := env.repos.Tickets.GetTicket(context.Background(), core.ID(resp.TicketID))
	require.NoError(t, err)
	assert.Equal(t, core.PriorityUrgent, ticket.Priority)
	assert.Equal(t, "technik", ticket.Department)
}

func TestProcess_RetryRecovers(t *testing.T) {
	env := newTestEnv(t)

	env.completer.FailWith = ai.ErrRateLimited
	env.completer.FailCount = 2

	resp, err := env.orch.Process(context.Background(), &Request{
		Brand:     "heine",
		Message:   "Wann kommt meine Bestellung an?",
		SessionID: "s-1",
	})
	require.NoError(t, err)

	assert.False(t, resp.EscalationRequired)
	assert.Equal(t, 3, env.completer.CallCount())
}

func TestProcess_RetrievalDegradesToUngroundedAnswer(t *testing.T) {
	env := newTestEnv(t)

	env.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("embedding backend down")
	}

	resp, err := env.orch.Process(context.Background(), &Request{
		Brand:     "heine",
		Message:   "Welche Größen führen Sie?",
		SessionID: "s-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Response)
	assert.Empty(t, resp.Sources)
	assert.False(t, resp.EscalationRequired)
}

func TestProcess_CachedSecondAsk(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.orch.Process(ctx, &Request{
		Brand:     "heine",
		Message:   "Welche Zahlungsarten bieten Sie?",
		SessionID: "s-1",
	})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// A different customer opens a fresh session with the same question.
	second, err := env.orch.Process(ctx, &Request{
		Brand:     "heine",
		Message:   "welche   zahlungsarten bieten sie?",
		SessionID: "s-2",
	})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.Response, second.Response)
	assert.Equal(t, 1, env.completer.CallCount())

	// The cached answer still lands in the second session's history.
	history, err := env.sessions.History(ctx, "heine", "s-2", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.Response, history[1].Content)
}

func TestProcess_CacheNeverCrossesTenants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.orch.Process(ctx, &Request{
		Brand:     "heine",
		Message:   "Welche Zahlungsarten bieten Sie?",
		SessionID: "s-1",
	})
	require.NoError(t, err)

	second, err := env.orch.Process(ctx, &Request{
		Brand:     "subbrand1",
		Message:   "Welche Zahlungsarten bieten Sie?",
		SessionID: "s-1",
	})
	require.NoError(t, err)

	assert.False(t, second.Cached)
	assert.NotEqual(t, first.Response, second.Response)
	assert.Equal(t, 2, env.completer.CallCount())
}

func TestProcess_CacheKeyedByConversationContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Two turns in one session: the second ask has different history, so
	// the first answer is not replayed.
	_, err := env.orch.Process(ctx, &Request{
		Brand:     "heine",
		Message:   "Welche Zahlungsarten bieten Sie?",
		SessionID: "s-1",
	})
	require.NoError(t, err)

	second, err := env.orch.Process(ctx, &Request{
		Brand:     "heine",
		Message:   "Welche Zahlungsarten bieten Sie?",
		SessionID: "s-1",
	})
	require.NoError(t, err)

	assert.False(t, second.Cached)
	assert.Equal(t, 2, env.completer.CallCount())
}

func TestProcessAsync_SerializesSessionTurns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		i := i
		wg.Add(1)
		err := env.orch.ProcessAsync(ctx, &Request{
			Brand:     "heine",
			Message:   fmt.Sprintf("Frage Nummer %d", i),
			SessionID: "s-1",
		}, func(resp *Response, err error) {
			defer wg.Done()
			assert.NoError(t, err)
			if err == nil {
				assert.NotEmpty(t, resp.Response)
			}
		})
		require.NoError(t, err)
	}
	wg.Wait()

	// Each turn appended its pair atomically: the history strictly
	// alternates customer and agent with matching content.
	history, err := env.sessions.History(ctx, "heine", "s-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2*turns)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, core.RoleCustomer, history[i].Role)
		assert.Equal(t, core.RoleAgent, history[i+1].Role)
		assert.Contains(t, history[i+1].Content, history[i].Content)
	}
}

func TestDeriveConfidence(t *testing.T) {
	assert.InDelta(t, 0.3, deriveConfidence(0), 1e-9)
	assert.InDelta(t, 0.5, deriveConfidence(1), 1e-9)
	assert.InDelta(t, 0.9, deriveConfidence(3), 1e-9)
	assert.Equal(t, 1.0, deriveConfidence(4))
	assert.Equal(t, 1.0, deriveConfidence(10))
}
