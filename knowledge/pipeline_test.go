package knowledge

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/quellwerk/concierge/ai/mock"
	"github.com/quellwerk/concierge/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) (*Pipeline, *badger.Repositories) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	pipeline, err := NewPipeline(repos.Chunks, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)
	return pipeline, repos
}

func TestNewPipeline_Validation(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	_, err = NewPipeline(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewPipeline(repos.Chunks, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestPipeline_Ingest(t *testing.T) {
	pipeline, repos := newTestPipeline(t, mock.NewMockEmbedder())
	ctx := context.Background()

	docs := []Document{
		{
			Title:    "Retouren",
			Path:     "faq/retouren.md",
			Category: "faq",
			Text:     "Rücksendungen sind innerhalb von 30 Tagen kostenlos.\n\nDas Rücksendeetikett liegt jeder Lieferung bei.",
		},
		{
			Title: "Versand",
			Path:  "faq/versand.md",
			Text:  "Die Lieferzeit beträgt 2 bis 3 Werktage.",
		},
	}

	count, err := pipeline.Ingest(ctx, "heine", docs...)
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	// Stored chunks carry normalized vectors and source metadata.
	results, err := repos.Backend.FindSimilar(ctx, "heine", NormalizeVector([]float32{0.5, 0.5}), -1, 100)
	require.NoError(t, err)
	require.Len(t, results, count)
	for _, sc := range results {
		assert.Equal(t, "heine", sc.Chunk.TenantID)
		assert.NotEmpty(t, sc.Chunk.Vector)
		assert.False(t, sc.Chunk.InsertedAt.IsZero())
	}
}

func TestPipeline_Ingest_EmptyTenant(t *testing.T) {
	pipeline, _ := newTestPipeline(t, mock.NewMockEmbedder())

	_, err := pipeline.Ingest(context.Background(), "", Document{Text: "text"})
	assert.ErrorIs(t, err, ErrEmptyTenant)
}

func TestPipeline_Ingest_EmptyDocument(t *testing.T) {
	pipeline, _ := newTestPipeline(t, mock.NewMockEmbedder())

	_, err := pipeline.Ingest(context.Background(), "heine", Document{Path: "leer.md", Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestPipeline_Ingest_RetriesEmbedding(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("rate limit exceeded")
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}

	pipeline, _ := newTestPipeline(t, embedder)

	count, err := pipeline.Ingest(context.Background(), "heine", Document{Path: "a.md", Text: "Ein Absatz."})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPipeline_Ingest_Batching(t *testing.T) {
	var batches atomic.Int32
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		batches.Add(1)
		assert.LessOrEqual(t, len(texts), 2)
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}

	pipeline, _ := newTestPipeline(t, embedder, WithBatchSize(2), WithChunkSize(40))

	paras := make([]string, 5)
	for i := range paras {
		paras[i] = strings.Repeat("x", 35) + string(rune('a'+i))
	}

	count, err := pipeline.Ingest(context.Background(), "heine",
		Document{Path: "lang.md", Text: strings.Join(paras, "\n\n")})
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, int32(3), batches.Load())
}

func TestPipeline_Reingest_ReplacesCollection(t *testing.T) {
	pipeline, repos := newTestPipeline(t, mock.NewMockEmbedder())
	ctx := context.Background()

	_, err := pipeline.Ingest(ctx, "heine", Document{Path: "alt.md", Text: "Alte Richtlinie."})
	require.NoError(t, err)

	count, err := pipeline.Reingest(ctx, "heine", Document{Path: "neu.md", Text: "Neue Richtlinie."})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := repos.Backend.FindSimilar(ctx, "heine", []float32{1, 0}, -1, 100)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Neue Richtlinie.", results[0].Chunk.Text)
}
