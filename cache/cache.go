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


// Package cache holds previously generated answers keyed by request
// fingerprint, in two tiers: an in-process hot tier and the persistent
// repository. A cache failure is never a request failure; both Lookup and
// Store degrade to miss/no-op and log.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage"
)

const hotCleanupInterval = 5 * time.Minute

// Cache is the two-tier response cache.
type Cache struct {
	hot        *gocache.Cache
	persistent storage.CacheRepository
	logger     *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a two-tier cache over the persistent repository.
func New(persistent storage.CacheRepository, opts ...Option) (*Cache, error) {
	if persistent == nil {
		return nil, ErrCacheRepositoryRequired
	}

	c := &Cache{
		hot:        gocache.New(gocache.NoExpiration, hotCleanupInterval),
		persistent: persistent,
		logger:     slog.Default().With("component", "response-cache"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Lookup returns the cached entry for the fingerprint, or ok=false on a
// miss. Persistent-tier failures count as misses. A persistent hit is
// promoted into the hot tier.
func (c *Cache) Lookup(ctx context.Context, fingerprint core.ID) (*core.CacheEntry, bool) {
	if v, ok := c.hot.Get(hotKey(fingerprint)); ok {
		if entry, ok := v.(*core.CacheEntry); ok {
			return entry, true
		}
	}

	entry, err := c.persistent.GetCacheEntry(ctx, fingerprint)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("persistent cache lookup failed, treating as miss",
				"fingerprint", fingerprint, "err", err)
		}
		return nil, false
	}

	c.hot.Set(hotKey(fingerprint), entry, remainingTTL(entry))
	return entry, true
}

// Store saves an entry in both tiers. Persistent-tier failures are logged
// and swallowed; the hot tier still serves the entry for this process.
func (c *Cache) Store(ctx context.Context, entry *core.CacheEntry) error {
	if entry == nil || entry.TenantID == "" || entry.Answer == "" {
		return ErrInvalidEntry
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	c.hot.Set(hotKey(entry.Fingerprint), entry, entry.TTL)

	if err := c.persistent.PutCacheEntry(ctx, entry); err != nil {
		c.logger.Warn("persistent cache store failed",
			"tenant", entry.TenantID, "fingerprint", entry.Fingerprint, "err", err)
	}
	return nil
}

// InvalidateTenant drops every entry of one tenant from both tiers,
// typically after the tenant's knowledge base was re-ingested. Returns
// the number of persistent entries removed.
func (c *Cache) InvalidateTenant(ctx context.Context, tenantID string) (int, error) {
	for key, item := range c.hot.Items() {
		if entry, ok := item.Object.(*core.CacheEntry); ok && entry.TenantID == tenantID {
			c.hot.Delete(key)
		}
	}

	deleted, err := c.persistent.DeleteTenantEntries(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	c.logger.Info("tenant cache invalidated", "tenant", tenantID, "entries", deleted)
	return deleted, nil
}

func hotKey(fingerprint core.ID) string {
	return strconv.FormatUint(uint64(fingerprint), 16)
}

// remainingTTL returns how long a persisted entry may still live in the
// hot tier.
func remainingTTL(entry *core.CacheEntry) time.Duration {
	if entry.TTL <= 0 {
		return gocache.NoExpiration
	}
	remaining := time.Until(entry.CreatedAt.Add(entry.TTL))
	if remaining <= 0 {
		return time.Millisecond
	}
	return remaining
}
