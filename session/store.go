// Copyright 2026 Quellwerk Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package session manages conversation state: one persisted, append-only
// message history per (tenant, session id) pair, with idle expiry driven
// by per-tenant TTLs.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage"
	"github.com/quellwerk/concierge/tenant"
)

// Store provides session lifecycle operations over the session repository.
// Writes to one session must be serialized: callers processing a turn hold
// that session's token (Acquire) across the whole turn, which also gives
// messages of one session a single total order.
type Store struct {
	sessions storage.SessionRepository
	registry *tenant.Registry
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a new session store.
func NewStore(sessions storage.SessionRepository, registry *tenant.Registry, opts ...Option) (*Store, error) {
	if sessions == nil {
		return nil, ErrSessionRepositoryRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	s := &Store{
		sessions: sessions,
		registry: registry,
		logger:   slog.Default().With("component", "session-store"),
		locks:    make(map[string]*lockEntry),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Acquire blocks until the caller holds the session's token and returns
// the release function. While held, no other goroutine can process a turn
// for the same (tenant, session id); different sessions proceed
// independently.
func (s *Store) Acquire(tenantID, sessionID string) (release func()) {
	key := tenantID + "\x00" + sessionID

	s.mu.Lock()
	entry, ok := s.locks[key]
	if !ok {
		entry = &lockEntry{}
		s.locks[key] = entry
	}
	entry.refs++
	s.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		s.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// GetOrCreate returns the session, creating it on first contact.
// The tenant must be registered.
func (s *Store) GetOrCreate(ctx context.Context, tenantID, sessionID, customerID string) (*core.Session, error) {
	if _, err := s.registry.Get(tenantID); err != nil {
		return nil, err
	}

	session, err := s.sessions.GetSession(ctx, tenantID, sessionID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	session = &core.Session{
		TenantID:       tenantID,
		SessionID:      sessionID,
		CustomerID:     customerID,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := core.ValidateSession(session); err != nil {
		return nil, err
	}
	if err := s.sessions.PutSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Debug("session created", "tenant", tenantID, "session", sessionID)
	return session, nil
}

// Append adds a message to the session's history and persists it.
// The caller is expected to hold the session token.
func (s *Store) Append(ctx context.Context, tenantID, sessionID string, msg core.Message) (*core.Session, error) {
	if err := core.ValidateMessage(&msg); err != nil {
		return nil, err
	}

	session, err := s.sessions.GetSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	session.Append(msg)
	if err := s.sessions.PutSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// History returns the most recent max messages in chronological order.
// max <= 0 returns the full history.
func (s *Store) History(ctx context.Context, tenantID, sessionID string, max int) ([]core.Message, error) {
	session, err := s.sessions.GetSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Recent(max), nil
}

// Delete removes a session and its full history, honoring a customer's
// deletion request.
func (s *Store) Delete(ctx context.Context, tenantID, sessionID string) error {
	release := s.Acquire(tenantID, sessionID)
	defer release()
	return s.sessions.DeleteSession(ctx, tenantID, sessionID)
}

// ExpireIdle removes every session idle past its tenant's TTL at the
// given instant. Returns the number of sessions removed.
func (s *Store) ExpireIdle(ctx context.Context, now time.Time) (int, error) {
	ttls := make(map[string]time.Duration)
	for _, id := range s.registry.IDs() {
		t, err := s.registry.Get(id)
		if err != nil {
			continue
		}
		ttls[id] = t.SessionTTL
	}

	refs, err := s.sessions.ListIdleSessions(ctx, now, ttls)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, ref := range refs {
		ttl, ok := ttls[ref.TenantID]
		if !ok {
			continue
		}
		release := s.Acquire(ref.TenantID, ref.SessionID)
		removed, err := s.expireSession(ctx, ref.TenantID, ref.SessionID, now, ttl)
		release()
		if err != nil {
			return expired, err
		}
		if removed {
			expired++
		}
	}

	if expired > 0 {
		s.logger.Info("expired idle sessions", "count", expired)
	}
	return expired, nil
}

// expireSession deletes one session if it is still idle. A turn may have
// landed between the idle scan and taking the session token; such a
// session is re-read as active and kept.
func (s *Store) expireSession(ctx context.Context, tenantID, sessionID string, now time.Time, ttl time.Duration) (bool, error) {
	session, err := s.sessions.GetSession(ctx, tenantID, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !session.IdleSince(now, ttl) {
		return false, nil
	}

	if err := s.sessions.DeleteSession(ctx, tenantID, sessionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// StartSweeper runs ExpireIdle on the given interval until ctx is done.
// Returns immediately; the sweeper runs on its own goroutine.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if _, err := s.ExpireIdle(ctx, now.UTC()); err != nil {
					s.logger.Error("error expiring idle sessions", "err", err)
				}
			}
		}
	}()
}
