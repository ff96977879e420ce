package badger

import (
	"context"
	"testing"

	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRepository_PutGet(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	chunk := makeChunk("heine", "Rücksendungen sind innerhalb von 30 Tagen kostenlos.", []float32{0.1, 0.2})
	chunk.Source = core.SourceMeta{Title: "Retouren", Path: "faq/retouren.md", Category: "faq"}
	require.NoError(t, repos.Chunks.PutChunks(ctx, chunk))

	got, err := repos.Chunks.GetChunk(ctx, "heine", chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, chunk.Text, got.Text)
	assert.Equal(t, chunk.Source, got.Source)
	assert.False(t, got.InsertedAt.IsZero())
}

func TestChunkRepository_Get_NotFound(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	_, err = repos.Chunks.GetChunk(context.Background(), "heine", core.ID(12345))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChunkRepository_Put_Idempotent(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	// Content-based IDs make re-ingesting the same text an overwrite.
	first := makeChunk("heine", "Lieferzeit beträgt 3 Tage", []float32{0.1})
	second := makeChunk("heine", "Lieferzeit beträgt 3 Tage", []float32{0.2})
	require.Equal(t, first.ID, second.ID)

	require.NoError(t, repos.Chunks.PutChunks(ctx, first))
	require.NoError(t, repos.Chunks.PutChunks(ctx, second))

	got, err := repos.Chunks.GetChunk(ctx, "heine", first.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.2}, got.Vector)
}

func TestChunkRepository_DeleteChunks(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	chunk := makeChunk("heine", "Zahlung per Rechnung", []float32{0.5})
	require.NoError(t, repos.Chunks.PutChunks(ctx, chunk))

	require.NoError(t, repos.Chunks.DeleteChunks(ctx, "heine", chunk.ID, core.ID(999)))

	_, err = repos.Chunks.GetChunk(ctx, "heine", chunk.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChunkRepository_DeleteTenantChunks(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	require.NoError(t, repos.Chunks.PutChunks(ctx,
		makeChunk("heine", "eins", []float32{0.1}),
		makeChunk("heine", "zwei", []float32{0.2}),
		makeChunk("subbrand1", "drei", []float32{0.3}),
	))

	deleted, err := repos.Chunks.DeleteTenantChunks(ctx, "heine")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	// Other tenant untouched
	otherID := core.IDFromContent("subbrand1:drei")
	_, err = repos.Chunks.GetChunk(ctx, "subbrand1", otherID)
	assert.NoError(t, err)
}
