package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/logging"
	"github.com/leobot/leo/memory"
)

func newTestPlanner(t *testing.T, embedder memory.Embedder, records []memory.Record) *Planner {
	t.Helper()

	store := memory.NewStore(embedder.Dim())
	require.NoError(t, store.Upsert(records))

	return NewPlanner(embedder, store, func(o *Options) {
		o.Logger = logging.NoOpLogger{}
		o.RetryBackoff = time.Millisecond
	})
}

func TestPlannerRetrieve(t *testing.T) {
	t.Run("returns relevant facts sorted by score", func(t *testing.T) {
		embedder := memory.NewMockEmbedder(2)
		embedder.AddVector("who plays today", []float32{1, 0})

		planner := newTestPlanner(t, embedder, []memory.Record{
			{ID: "close", Text: "a nearby match", Vector: []float32{0.9, 0.1}},
			{ID: "exact", Text: "the match asked about", Vector: []float32{1, 0}},
			{ID: "unrelated", Text: "noise", Vector: []float32{0, 1}},
		})

		facts, err := planner.Retrieve(context.Background(), "who plays today")
		require.NoError(t, err)
		require.Len(t, facts, 2)
		assert.Equal(t, "exact", facts[0].ID)
		assert.Equal(t, "close", facts[1].ID)
		assert.Greater(t, facts[0].Score, facts[1].Score)
	})

	t.Run("empty store yields empty facts, no error", func(t *testing.T) {
		embedder := memory.NewMockEmbedder(2)
		planner := newTestPlanner(t, embedder, nil)

		facts, err := planner.Retrieve(context.Background(), "anything")
		require.NoError(t, err)
		assert.Empty(t, facts)
	})

	t.Run("duplicate fact keys collapse to highest score", func(t *testing.T) {
		embedder := memory.NewMockEmbedder(2)
		embedder.AddVector("query", []float32{1, 0})

		planner := newTestPlanner(t, embedder, []memory.Record{
			{ID: "stale", Text: "old version", Vector: []float32{0.8, 0.2}, Metadata: map[string]string{"fact_key": "fixture-42"}},
			{ID: "fresh", Text: "new version", Vector: []float32{1, 0}, Metadata: map[string]string{"fact_key": "fixture-42"}},
		})

		facts, err := planner.Retrieve(context.Background(), "query")
		require.NoError(t, err)
		require.Len(t, facts, 1)
		assert.Equal(t, "fresh", facts[0].ID)
		assert.Equal(t, "new version", facts[0].Text)
	})

	t.Run("embedding failure surfaces as retrieval unavailable", func(t *testing.T) {
		embedder := memory.NewMockEmbedder(2)
		embedder.Fail(errors.New("service down"))
		planner := newTestPlanner(t, embedder, nil)

		facts, err := planner.Retrieve(context.Background(), "query")
		assert.Nil(t, facts)

		var unavailable *core.RetrievalUnavailableError
		require.True(t, errors.As(err, &unavailable))
	})

	t.Run("transient embedding failure is retried once", func(t *testing.T) {
		embedder := &flakyEmbedder{
			inner:    memory.NewMockEmbedder(2),
			failures: 1,
		}
		embedder.inner.AddVector("query", []float32{1, 0})

		planner := newTestPlanner(t, embedder, []memory.Record{
			{ID: "a", Text: "fact", Vector: []float32{1, 0}},
		})

		facts, err := planner.Retrieve(context.Background(), "query")
		require.NoError(t, err)
		assert.Len(t, facts, 1)
		assert.Equal(t, 2, embedder.calls)
	})
}

// flakyEmbedder fails its first n calls with a transient error, then delegates.
type flakyEmbedder struct {
	inner    *memory.MockEmbedder
	failures int
	calls    int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, &core.TransientNetworkError{Op: "embed", Err: errors.New("timeout")}
	}
	return f.inner.Embed(ctx, text)
}

func (f *flakyEmbedder) Dim() int { return f.inner.Dim() }
