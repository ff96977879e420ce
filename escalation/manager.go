package escalation

import (
	"context"
	"log/slog"

	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage"
)

// transcriptLimit bounds how much history a ticket carries for the human
// operator.
const transcriptLimit = 20

// Manager turns escalation verdicts into tickets and tracks their
// lifecycle.
type Manager struct {
	tickets storage.TicketRepository
	logger  *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager) error

// WithManagerLogger sets a custom logger.
// Default is slog.Default().
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewManager creates a new escalation manager.
func NewManager(tickets storage.TicketRepository, opts ...ManagerOption) (*Manager, error) {
	if tickets == nil {
		return nil, ErrTicketRepositoryRequired
	}

	m := &Manager{
		tickets: tickets,
		logger:  slog.Default().With("component", "escalation"),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Escalate creates and stores a pending ticket for the session.
// Priority and department routing follow from the escalation reason.
func (m *Manager) Escalate(ctx context.Context, session *core.Session, verdict core.EscalationVerdict, triggerMessage string) (*core.Ticket, error) {
	ticket := &core.Ticket{
		TenantID:       session.TenantID,
		SessionID:      session.SessionID,
		Reason:         verdict.Reason,
		Priority:       priorityFor(verdict.Reason),
		Status:         core.TicketPending,
		Department:     departmentFor(verdict.Reason),
		TriggerMessage: triggerMessage,
		Transcript:     session.Recent(transcriptLimit),
	}

	if err := m.tickets.PutTicket(ctx, ticket); err != nil {
		return nil, err
	}

	m.logger.Info("conversation escalated",
		"tenant", ticket.TenantID,
		"session", ticket.SessionID,
		"reason", ticket.Reason,
		"rule", verdict.TriggeredRule,
		"ticket", ticket.ID,
		"department", ticket.Department)

	return ticket, nil
}

// Assign marks a ticket as taken by an operator.
func (m *Manager) Assign(ctx context.Context, id core.ID, operator string) (*core.Ticket, error) {
	ticket, err := m.tickets.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Assign(operator)
	if err := m.tickets.PutTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Resolve marks a ticket as handled.
func (m *Manager) Resolve(ctx context.Context, id core.ID) (*core.Ticket, error) {
	ticket, err := m.tickets.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Resolve()
	if err := m.tickets.PutTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Pending lists a tenant's open tickets in pickup order: most urgent
// first, oldest first within the same priority. An empty tenantID lists
// across all tenants.
func (m *Manager) Pending(ctx context.Context, tenantID string) ([]*core.Ticket, error) {
	return m.tickets.ListTickets(ctx, tenantID, core.TicketPending)
}

// priorityFor maps an escalation reason to a pickup priority.
// Provider failures outrank everything: the customer got no real answer.
func priorityFor(reason string) core.TicketPriority {
	switch reason {
	case core.ReasonProviderFailure:
		return core.PriorityUrgent
	case core.ReasonKeyword:
		return core.PriorityHigh
	case core.ReasonSentiment:
		return core.PriorityHigh
	case core.ReasonLowConfidence:
		return core.PriorityMedium
	default:
		return core.PriorityLow
	}
}

// departmentFor routes a ticket by its escalation reason.
func departmentFor(reason string) string {
	switch reason {
	case core.ReasonKeyword, core.ReasonSentiment:
		return "beschwerden"
	case core.ReasonLowConfidence:
		return "fachberatung"
	case core.ReasonProviderFailure:
		return "technik"
	default:
		return "kundenservice"
	}
}
