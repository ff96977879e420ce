package badger

import (
	"context"
	"testing"
	"time"

	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketRepository_PutGet(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	ticket := &core.Ticket{
		TenantID:       "heine",
		SessionID:      "sess-1",
		Reason:         core.ReasonKeyword,
		Priority:       core.PriorityHigh,
		Status:         core.TicketPending,
		Department:     "beschwerden",
		TriggerMessage: "Ich möchte eine Beschwerde einreichen!",
	}
	require.NoError(t, repos.Tickets.PutTicket(ctx, ticket))

	// ID and timestamps assigned on first store
	assert.NotZero(t, ticket.ID)
	assert.False(t, ticket.CreatedAt.IsZero())

	got, err := repos.Tickets.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ReasonKeyword, got.Reason)
	assert.Equal(t, core.PriorityHigh, got.Priority)
	assert.Equal(t, "beschwerden", got.Department)
}

func TestTicketRepository_Get_NotFound(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	_, err = repos.Tickets.GetTicket(context.Background(), core.ID(404))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTicketRepository_Lifecycle(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	ticket := &core.Ticket{
		TenantID:  "heine",
		SessionID: "sess-2",
		Reason:    core.ReasonSentiment,
		Priority:  core.PriorityMedium,
		Status:    core.TicketPending,
	}
	require.NoError(t, repos.Tickets.PutTicket(ctx, ticket))

	ticket.Assign("operator-1")
	require.NoError(t, repos.Tickets.PutTicket(ctx, ticket))

	got, err := repos.Tickets.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, core.TicketAssigned, got.Status)
	assert.Equal(t, "operator-1", got.AssignedTo)

	ticket.Resolve()
	require.NoError(t, repos.Tickets.PutTicket(ctx, ticket))

	got, err = repos.Tickets.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, core.TicketResolved, got.Status)
}

func TestTicketRepository_ListTickets(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	tickets := []*core.Ticket{
		{TenantID: "heine", SessionID: "s1", Reason: core.ReasonKeyword, Status: core.TicketPending, CreatedAt: base},
		{TenantID: "heine", SessionID: "s2", Reason: core.ReasonSentiment, Status: core.TicketResolved, CreatedAt: base.Add(time.Minute)},
		{TenantID: "subbrand1", SessionID: "s3", Reason: core.ReasonKeyword, Status: core.TicketPending, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, tk := range tickets {
		require.NoError(t, repos.Tickets.PutTicket(ctx, tk))
	}

	t.Run("all tickets", func(t *testing.T) {
		got, err := repos.Tickets.ListTickets(ctx, "", 0)
		require.NoError(t, err)
		assert.Len(t, got, 3)
		// Ordered by creation time ascending
		assert.Equal(t, "s1", got[0].SessionID)
		assert.Equal(t, "s3", got[2].SessionID)
	})

	t.Run("by tenant", func(t *testing.T) {
		got, err := repos.Tickets.ListTickets(ctx, "heine", 0)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by tenant and status", func(t *testing.T) {
		got, err := repos.Tickets.ListTickets(ctx, "heine", core.TicketPending)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "s1", got[0].SessionID)
	})
}

func TestTicketRepository_ListTickets_PickupOrder(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	// Stored out of pickup order: the urgent ticket is the newest.
	tickets := []*core.Ticket{
		{TenantID: "heine", SessionID: "medium-old", Priority: core.PriorityMedium, Status: core.TicketPending, CreatedAt: base},
		{TenantID: "heine", SessionID: "high-old", Priority: core.PriorityHigh, Status: core.TicketPending, CreatedAt: base.Add(time.Minute)},
		{TenantID: "heine", SessionID: "high-new", Priority: core.PriorityHigh, Status: core.TicketPending, CreatedAt: base.Add(2 * time.Minute)},
		{TenantID: "heine", SessionID: "urgent-new", Priority: core.PriorityUrgent, Status: core.TicketPending, CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, tk := range tickets {
		require.NoError(t, repos.Tickets.PutTicket(ctx, tk))
	}

	got, err := repos.Tickets.ListTickets(ctx, "heine", core.TicketPending)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Priority wins over age; equal priorities stay oldest first.
	assert.Equal(t, "urgent-new", got[0].SessionID)
	assert.Equal(t, "high-old", got[1].SessionID)
	assert.Equal(t, "high-new", got[2].SessionID)
	assert.Equal(t, "medium-old", got[3].SessionID)
}
