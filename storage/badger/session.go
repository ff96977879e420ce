package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage"
)

// SessionRepository implements storage.SessionRepository for BadgerDB.
type SessionRepository struct {
	backend *Backend
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(backend *Backend) *SessionRepository {
	return &SessionRepository{backend: backend}
}

// Close is a no-op; the shared backend is closed by its owner.
func (r *SessionRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *SessionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutSession stores or replaces a session.
func (r *SessionRepository) PutSession(ctx context.Context, session *core.Session) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSessionKey(session.TenantID, session.SessionID)
		if err := tx.Set(key, storage.MarshalSession(session)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetSession retrieves a session by tenant and session id.
func (r *SessionRepository) GetSession(ctx context.Context, tenantID, sessionID string) (*core.Session, error) {
	var result *core.Session
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readSession(tx, makeSessionKey(tenantID, sessionID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteSession removes a session and its full message history.
func (r *SessionRepository) DeleteSession(ctx context.Context, tenantID, sessionID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSessionKey(tenantID, sessionID)
		if _, err := tx.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListIdleSessions scans all sessions and returns references to those idle
// past their tenant's TTL. Tenants missing from ttls are skipped.
func (r *SessionRepository) ListIdleSessions(ctx context.Context, now time.Time, ttls map[string]time.Duration) ([]storage.SessionRef, error) {
	var refs []storage.SessionRef
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var session *core.Session
			err := iter.Item().Value(func(val []byte) error {
				var err error
				session, err = storage.UnmarshalSession(val)
				return err
			})
			if err != nil {
				return err
			}
			if session == nil {
				continue
			}

			ttl, ok := ttls[session.TenantID]
			if !ok {
				continue
			}
			if session.IdleSince(now, ttl) {
				refs = append(refs, storage.SessionRef{
					TenantID:  session.TenantID,
					SessionID: session.SessionID,
				})
			}
		}
		return nil
	}, false)
	return refs, err
}

// readSession reads a session from the transaction.
// Returns nil without error when the key is absent.
func readSession(tx *badger.Txn, key []byte) (*core.Session, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var session *core.Session
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		session, unmarshalErr = storage.UnmarshalSession(val)
		return unmarshalErr
	})
	return session, err
}
