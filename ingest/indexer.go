// Package ingest loads fixture facts into the vector memory store: a full
// build at startup and optional periodic refreshes while the bot runs.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/leobot/leo/logging"
	"github.com/leobot/leo/memory"
	"github.com/leobot/leo/sportsdata"
)

// Source produces the facts to index. Implemented by sportsdata.Client.
type Source interface {
	FetchRange(ctx context.Context, past, future int) ([]sportsdata.Fact, error)
}

// Options configure an Indexer.
type Options struct {
	// DaysPast and DaysFuture bound the fetched fixture window.
	DaysPast   int
	DaysFuture int
	// RefreshInterval re-indexes periodically when positive.
	RefreshInterval time.Duration
	Logger          logging.Logger
}

// Indexer embeds fetched facts and upserts them into the store. Fact IDs are
// stable, so a refresh replaces existing records instead of duplicating them.
type Indexer struct {
	source   Source
	embedder memory.Embedder
	store    *memory.Store
	opts     Options
}

// NewIndexer constructs an Indexer.
func NewIndexer(source Source, embedder memory.Embedder, store *memory.Store, optFns ...func(o *Options)) *Indexer {
	opts := Options{
		DaysPast:   1,
		DaysFuture: 7,
		Logger:     logging.NewDefaultSlogLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Indexer{source: source, embedder: embedder, store: store, opts: opts}
}

// Index fetches the fixture window, embeds each fact, and upserts the batch.
// A fact whose embedding fails is skipped with a warning; the rest of the
// batch still lands. Returns how many records were indexed.
func (ix *Indexer) Index(ctx context.Context) (int, error) {
	facts, err := ix.source.FetchRange(ctx, ix.opts.DaysPast, ix.opts.DaysFuture)
	if err != nil {
		return 0, fmt.Errorf("fetch facts: %w", err)
	}

	records := make([]memory.Record, 0, len(facts))
	for _, f := range facts {
		vec, err := ix.embedder.Embed(ctx, f.Text)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			ix.opts.Logger.Warn("ingest.embed.skipped", "fact_id", f.ID, "error", err)
			continue
		}
		records = append(records, memory.Record{
			ID:       f.ID,
			Text:     f.Text,
			Vector:   vec,
			Metadata: f.Metadata,
		})
	}

	if err := ix.store.Upsert(records); err != nil {
		return 0, fmt.Errorf("upsert records: %w", err)
	}

	ix.opts.Logger.Info("ingest.index.done", "facts", len(facts), "indexed", len(records))

	return len(records), nil
}

// Refresh re-indexes on every tick of the refresh interval until the context
// is cancelled. A failed refresh keeps the previous index and tries again on
// the next tick.
func (ix *Indexer) Refresh(ctx context.Context) error {
	ticker := time.NewTicker(ix.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := ix.Index(ctx); err != nil {
				ix.opts.Logger.Warn("ingest.refresh.failed", "error", err)
			}
		}
	}
}
