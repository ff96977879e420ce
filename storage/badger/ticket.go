package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage"
)

// TicketRepository implements storage.TicketRepository for BadgerDB.
type TicketRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new TicketRepository.
func NewTicketRepository(backend *Backend) (*TicketRepository, error) {
	idSeq, err := backend.GetSequence(ticketIDSeq)
	if err != nil {
		return nil, err
	}

	return &TicketRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *TicketRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *TicketRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutTicket stores or replaces a ticket. Tickets with ID=0 get a new ID
// from the sequence and their CreatedAt set.
func (r *TicketRepository) PutTicket(ctx context.Context, ticket *core.Ticket) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if ticket.ID == 0 {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			ticket.ID = core.ID(nextID)
		}
		if ticket.CreatedAt.IsZero() {
			ticket.CreatedAt = time.Now().UTC()
		}
		ticket.UpdatedAt = time.Now().UTC()

		key := makeTicketKey(ticket.ID)
		if err := tx.Set(key, storage.MarshalTicket(ticket)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetTicket retrieves a ticket by id.
func (r *TicketRepository) GetTicket(ctx context.Context, id core.ID) (*core.Ticket, error) {
	var result *core.Ticket
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeTicketKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalTicket(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// ListTickets returns tickets filtered by tenant and status, ordered by
// priority descending and creation time ascending within a priority.
// Empty tenantID or status 0 matches everything.
func (r *TicketRepository) ListTickets(ctx context.Context, tenantID string, status core.TicketStatus) ([]*core.Ticket, error) {
	var results []*core.Ticket
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(ticketPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var ticket *core.Ticket
			err := iter.Item().Value(func(val []byte) error {
				var err error
				ticket, err = storage.UnmarshalTicket(val)
				return err
			})
			if err != nil {
				return err
			}
			if ticket == nil {
				continue
			}
			if tenantID != "" && ticket.TenantID != tenantID {
				continue
			}
			if status != 0 && ticket.Status != status {
				continue
			}
			results = append(results, ticket)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Ticket) int {
		if a.Priority != b.Priority {
			return int(b.Priority) - int(a.Priority)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return results, nil
}
