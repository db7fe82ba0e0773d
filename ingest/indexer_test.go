package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leobot/leo/logging"
	"github.com/leobot/leo/memory"
	"github.com/leobot/leo/sportsdata"
)

type staticSource struct {
	facts []sportsdata.Fact
	err   error
}

func (s staticSource) FetchRange(context.Context, int, int) ([]sportsdata.Fact, error) {
	return s.facts, s.err
}

func noLog(o *Options) { o.Logger = logging.NoOpLogger{} }

func TestIndexerIndex(t *testing.T) {
	t.Run("embeds and stores all facts", func(t *testing.T) {
		source := staticSource{facts: []sportsdata.Fact{
			{ID: "fixture-1", Text: "match one", Metadata: map[string]string{"league": "A"}},
			{ID: "fixture-2", Text: "match two"},
		}}
		embedder := memory.NewMockEmbedder(4)
		store := memory.NewStore(4)

		indexed, err := NewIndexer(source, embedder, store, noLog).Index(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, indexed)
		assert.Equal(t, 2, store.Len())
	})

	t.Run("re-indexing does not duplicate", func(t *testing.T) {
		source := staticSource{facts: []sportsdata.Fact{{ID: "fixture-1", Text: "match one"}}}
		embedder := memory.NewMockEmbedder(4)
		store := memory.NewStore(4)
		ix := NewIndexer(source, embedder, store, noLog)

		_, err := ix.Index(context.Background())
		require.NoError(t, err)
		_, err = ix.Index(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, store.Len())
	})

	t.Run("failed embedding skips the fact, keeps the rest", func(t *testing.T) {
		source := staticSource{facts: []sportsdata.Fact{
			{ID: "fixture-1", Text: "good"},
			{ID: "fixture-2", Text: "also good"},
		}}
		embedder := &failOnceEmbedder{inner: memory.NewMockEmbedder(4)}
		store := memory.NewStore(4)

		indexed, err := NewIndexer(source, embedder, store, noLog).Index(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, indexed)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("source failure surfaces", func(t *testing.T) {
		source := staticSource{err: errors.New("api down")}
		embedder := memory.NewMockEmbedder(4)
		store := memory.NewStore(4)

		_, err := NewIndexer(source, embedder, store, noLog).Index(context.Background())
		require.Error(t, err)
		assert.Equal(t, 0, store.Len())
	})
}

// failOnceEmbedder fails the first embedding and delegates afterwards.
type failOnceEmbedder struct {
	inner *memory.MockEmbedder
	calls int
}

func (f *failOnceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls == 1 {
		return nil, errors.New("embed failed")
	}
	return f.inner.Embed(ctx, text)
}

func (f *failOnceEmbedder) Dim() int { return f.inner.Dim() }
