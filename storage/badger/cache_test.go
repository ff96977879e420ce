package badger

import (
	"context"
	"testing"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepository_PutGet(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	entry := &core.CacheEntry{
		Fingerprint: core.IDFromContent("heine\x00wo ist meine bestellung"),
		TenantID:    "heine",
		Answer:      "Ihre Bestellung ist unterwegs.",
		Sources:     []core.SourceMeta{{Title: "Versand", Path: "faq/versand.md"}},
		CreatedAt:   now,
		TTL:         15 * time.Minute,
	}
	require.NoError(t, repos.Cache.PutCacheEntry(ctx, entry))

	got, err := repos.Cache.GetCacheEntry(ctx, entry.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, entry.Answer, got.Answer)
	assert.Equal(t, entry.TenantID, got.TenantID)
	assert.Equal(t, entry.Sources, got.Sources)
}

func TestCacheRepository_Get_NotFound(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	_, err = repos.Cache.GetCacheEntry(context.Background(), core.ID(42))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCacheRepository_TTLExpiry(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	entry := &core.CacheEntry{
		Fingerprint: core.IDFromContent("heine\x00kurzlebig"),
		TenantID:    "heine",
		Answer:      "flüchtig",
		CreatedAt:   time.Now().UTC(),
		TTL:         50 * time.Millisecond,
	}
	require.NoError(t, repos.Cache.PutCacheEntry(ctx, entry))

	_, err = repos.Cache.GetCacheEntry(ctx, entry.Fingerprint)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, err = repos.Cache.GetCacheEntry(ctx, entry.Fingerprint)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCacheRepository_Get_CorruptEntry(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	fingerprint := core.IDFromContent("heine\x00kaputt")

	// Bytes under a cache key that no serializer produced.
	err = repos.Backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Set(makeCacheKey(fingerprint), []byte{0xFF, 0xFF}); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	require.NoError(t, err)

	_, err = repos.Cache.GetCacheEntry(ctx, fingerprint)
	assert.ErrorIs(t, err, storage.ErrCacheUnavailable)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestCacheRepository_ClosedBackend(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	require.NoError(t, repos.Close())

	_, err = repos.Cache.GetCacheEntry(context.Background(), core.ID(1))
	assert.ErrorIs(t, err, storage.ErrCacheUnavailable)

	err = repos.Cache.PutCacheEntry(context.Background(), &core.CacheEntry{
		Fingerprint: core.ID(1), TenantID: "heine", Answer: "a",
	})
	assert.ErrorIs(t, err, storage.ErrCacheUnavailable)
}

func TestCacheRepository_DeleteTenantEntries(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	entries := []*core.CacheEntry{
		{Fingerprint: core.IDFromContent("heine\x00a"), TenantID: "heine", Answer: "a", CreatedAt: now, TTL: time.Hour},
		{Fingerprint: core.IDFromContent("heine\x00b"), TenantID: "heine", Answer: "b", CreatedAt: now, TTL: time.Hour},
		{Fingerprint: core.IDFromContent("subbrand1\x00a"), TenantID: "subbrand1", Answer: "c", CreatedAt: now, TTL: time.Hour},
	}
	for _, e := range entries {
		require.NoError(t, repos.Cache.PutCacheEntry(ctx, e))
	}

	deleted, err := repos.Cache.DeleteTenantEntries(ctx, "heine")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = repos.Cache.GetCacheEntry(ctx, entries[0].Fingerprint)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := repos.Cache.GetCacheEntry(ctx, entries[2].Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, "c", got.Answer)
}
