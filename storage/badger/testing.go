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


package badger

import "github.com/quellwerk/concierge/storage"

// Repositories bundles all repositories over one shared backend.
type Repositories struct {
	Sessions storage.SessionRepository
	Chunks   storage.ChunkRepository
	Cache    storage.CacheRepository
	Tickets  storage.TicketRepository
	Backend  *Backend
}

// Close closes the ticket sequence and the shared backend.
func (r *Repositories) Close() error {
	if err := r.Tickets.Close(); err != nil {
		r.Backend.Close()
		return err
	}
	return r.Backend.Close()
}

// NewRepositories creates all repositories over a backend.
func NewRepositories(backend *Backend) (*Repositories, error) {
	tickets, err := NewTicketRepository(backend)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Sessions: NewSessionRepository(backend),
		Chunks:   NewChunkRepository(backend),
		Cache:    NewCacheRepository(backend),
		Tickets:  tickets,
		Backend:  backend,
	}, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the returned bundle when done.
func NewMemoryRepositories() (*Repositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	repos, err := NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return repos, nil
}
