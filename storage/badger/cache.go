package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage"
)

// CacheRepository implements storage.CacheRepository for BadgerDB.
// Expiry is delegated to badger entry TTLs, so expired entries surface as
// ErrNotFound without a sweeper. Backend failures surface as
// storage.ErrCacheUnavailable so callers can treat them as misses.
type CacheRepository struct {
	backend *Backend
}

var _ storage.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a new CacheRepository.
func NewCacheRepository(backend *Backend) *CacheRepository {
	return &CacheRepository{backend: backend}
}

// Close is a no-op; the shared backend is closed by its owner.
func (r *CacheRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *CacheRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutCacheEntry stores an entry under its fingerprint with its TTL.
func (r *CacheRepository) PutCacheEntry(ctx context.Context, entry *core.CacheEntry) error {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		e := badger.NewEntry(makeCacheKey(entry.Fingerprint), storage.MarshalCacheEntry(entry))
		if entry.TTL > 0 {
			e = e.WithTTL(entry.TTL)
		}
		if err := tx.SetEntry(e); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrCacheUnavailable, err)
	}
	return nil
}

// GetCacheEntry retrieves an entry by fingerprint.
// Expired entries are indistinguishable from absent ones.
func (r *CacheRepository) GetCacheEntry(ctx context.Context, fingerprint core.ID) (*core.CacheEntry, error) {
	var result *core.CacheEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCacheKey(fingerprint))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalCacheEntry(val)
			return unmarshalErr
		})
	}, false)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", storage.ErrCacheUnavailable, err)
	}
	return result, err
}

// DeleteTenantEntries removes all cached entries for one tenant.
// Used when a tenant's knowledge base is re-ingested.
func (r *CacheRepository) DeleteTenantEntries(ctx context.Context, tenantID string) (int, error) {
	var deleted int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(cachePrefix + ":")
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *core.CacheEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalCacheEntry(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}
			if entry != nil && entry.TenantID == tenantID {
				keys = append(keys, iter.Item().KeyCopy(nil))
			}
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrCacheUnavailable, err)
	}
	return deleted, nil
}
