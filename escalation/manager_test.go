package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage/badger"
	"github.com/quellwerk/concierge/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	manager, err := NewManager(repos.Tickets)
	require.NoError(t, err)
	return manager
}

func testSession() *core.Session {
	now := time.Now().UTC()
	return &core.Session{
		TenantID:       "heine",
		SessionID:      "sess-1",
		CreatedAt:      now,
		LastActivityAt: now,
		Messages: []core.Message{
			{Role: core.RoleCustomer, Content: "Ich bin sehr unzufrieden!", Timestamp: now},
		},
	}
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(nil)
	assert.ErrorIs(t, err, ErrTicketRepositoryRequired)
}

func TestEscalate_CreatesTicket(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	verdict := core.EscalationVerdict{
		Required:      true,
		Reason:        core.ReasonKeyword,
		Score:         1.0,
		TriggeredRule: "unzufrieden",
	}

	ticket, err := manager.Escalate(ctx, testSession(), verdict, "Ich bin sehr unzufrieden!")
	require.NoError(t, err)

	assert.NotZero(t, ticket.ID)
	assert.Equal(t, "heine", ticket.TenantID)
	assert.Equal(t, core.ReasonKeyword, ticket.Reason)
	assert.Equal(t, core.PriorityHigh, ticket.Priority)
	assert.Equal(t, core.TicketPending, ticket.Status)
	assert.Equal(t, "beschwerden", ticket.Department)
	require.Len(t, ticket.Transcript, 1)
}

func TestEscalate_RoutingByReason(t *testing.T) {
	tests := []struct {
		reason         string
		wantPriority   core.TicketPriority
		wantDepartment string
	}{
		{core.ReasonKeyword, core.PriorityHigh, "beschwerden"},
		{core.ReasonSentiment, core.PriorityHigh, "beschwerden"},
		{core.ReasonLowConfidence, core.PriorityMedium, "fachberatung"},
		{core.ReasonProviderFailure, core.PriorityUrgent, "technik"},
	}

	manager := newTestManager(t)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			ticket, err := manager.Escalate(ctx, testSession(), core.EscalationVerdict{
				Required: true, Reason: tt.reason, Score: 1.0,
			}, "auslöser")
			require.NoError(t, err)
			assert.Equal(t, tt.wantPriority, ticket.Priority)
			assert.Equal(t, tt.wantDepartment, ticket.Department)
		})
	}
}

func TestManager_AssignResolve(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	ticket, err := manager.Escalate(ctx, testSession(), core.EscalationVerdict{
		Required: true, Reason: core.ReasonLowConfidence, Score: 0.5,
	}, "frage")
	require.NoError(t, err)

	assigned, err := manager.Assign(ctx, ticket.ID, "operator-1")
	require.NoError(t, err)
	assert.Equal(t, core.TicketAssigned, assigned.Status)
	assert.Equal(t, "operator-1", assigned.AssignedTo)

	resolved, err := manager.Resolve(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, core.TicketResolved, resolved.Status)

	pending, err := manager.Pending(ctx, "heine")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestManager_Pending_UrgentFirst(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	older, err := manager.Escalate(ctx, testSession(), core.EscalationVerdict{
		Required: true, Reason: core.ReasonLowConfidence, Score: 0.6,
	}, "unsichere antwort")
	require.NoError(t, err)

	urgent, err := manager.Escalate(ctx, testSession(), core.EscalationVerdict{
		Required: true, Reason: core.ReasonProviderFailure, Score: 1.0,
	}, "keine antwort")
	require.NoError(t, err)

	// The urgent ticket was filed later but must be picked up first.
	pending, err := manager.Pending(ctx, "heine")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, urgent.ID, pending[0].ID)
	assert.Equal(t, older.ID, pending[1].ID)
}

func TestHandoffMessage_Localized(t *testing.T) {
	de := &tenant.Tenant{ID: "heine", Language: "de", SupportContact: "service@heine.example"}
	assert.Contains(t, HandoffMessage(de), "service@heine.example")
	assert.Contains(t, HandoffMessage(de), "Serviceteam")

	en := &tenant.Tenant{ID: "intl", Language: "en"}
	assert.Contains(t, HandoffMessage(en), "service agents")
}

func TestFallbackMessage_Localized(t *testing.T) {
	de := &tenant.Tenant{ID: "heine"}
	assert.Contains(t, FallbackMessage(de), "tut mir leid")

	en := &tenant.Tenant{ID: "intl", Language: "en"}
	assert.Contains(t, FallbackMessage(en), "sorry")
}
