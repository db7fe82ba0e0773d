// Package retrieval turns a user query into a ranked, deduplicated set of
// facts from the vector memory store.
package retrieval

import (
	"context"
	"time"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/internal/util"
	"github.com/leobot/leo/logging"
	"github.com/leobot/leo/memory"
)

// Fact is a retrieved memory record, stripped of its vector, ready for prompt
// injection.
type Fact struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
}

// Options configure a Planner.
type Options struct {
	// K caps the number of facts returned per query.
	K int
	// MinScore drops matches below this cosine similarity.
	MinScore float64
	// RetryBackoff is the delay before the single retry of a transient
	// embedding failure.
	RetryBackoff time.Duration
	Logger       logging.Logger
}

// Planner embeds the query and ranks nearby facts. Failures to reach the
// embedding service surface as RetrievalUnavailableError so the caller can
// degrade to an answer without retrieved context.
type Planner struct {
	embedder memory.Embedder
	store    *memory.Store
	opts     Options
}

// NewPlanner creates a Planner over the given embedder and store.
func NewPlanner(embedder memory.Embedder, store *memory.Store, optFns ...func(o *Options)) *Planner {
	opts := Options{
		K:            10,
		MinScore:     0.5,
		RetryBackoff: 500 * time.Millisecond,
		Logger:       logging.NewDefaultSlogLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Planner{embedder: embedder, store: store, opts: opts}
}

// Retrieve returns up to K facts relevant to the query, sorted by score
// descending and deduplicated. An empty slice with a nil error means the
// store simply had nothing relevant.
func (p *Planner) Retrieve(ctx context.Context, query string) ([]Fact, error) {
	var vec []float32
	err := util.Retry(ctx, 2, p.opts.RetryBackoff, func() error {
		var embedErr error
		vec, embedErr = p.embedder.Embed(ctx, query)
		return embedErr
	})
	if err != nil {
		p.opts.Logger.Warn("retrieval.embed.failed", "error", err)
		return nil, &core.RetrievalUnavailableError{Err: err}
	}

	scored := p.store.Query(vec, p.opts.K, p.opts.MinScore)
	facts := dedupe(scored)

	p.opts.Logger.Debug("retrieval.retrieve.done", "candidates", len(scored), "facts", len(facts))

	return facts, nil
}

// dedupe collapses records sharing a fact key, keeping the highest-scored
// occurrence. Records without a fact_key metadata entry dedupe by ID. Input
// order is descending score, so the first occurrence wins and order is
// preserved.
func dedupe(scored []memory.Scored) []Fact {
	seen := make(map[string]struct{}, len(scored))
	facts := make([]Fact, 0, len(scored))

	for _, s := range scored {
		key := s.ID
		if fk, ok := s.Metadata["fact_key"]; ok && fk != "" {
			key = fk
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		facts = append(facts, Fact{
			ID:       s.ID,
			Text:     s.Text,
			Metadata: s.Metadata,
			Score:    s.Score,
		})
	}

	return facts
}
