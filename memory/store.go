package memory

import (
	"math"
	"sort"
	"sync"

	"github.com/leobot/leo/core"
)

// Store is an in-process vector index over Records. All vectors share one
// fixed dimension set at construction.
//
// Concurrency: read-mostly. Queries take a shared lock and proceed without
// blocking each other; Upsert/Replace take the exclusive lock for their
// duration (startup ingestion and periodic refresh).
type Store struct {
	mu      sync.RWMutex
	dim     int
	records []Record       // insertion order, drives tie-breaking
	index   map[string]int // record id -> position in records
}

// NewStore creates an empty store for vectors of the given dimension.
func NewStore(dim int) *Store {
	return &Store{dim: dim, index: make(map[string]int)}
}

// Dim returns the fixed vector dimension of the store.
func (s *Store) Dim() int { return s.dim }

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Upsert inserts the records, replacing any existing record sharing the same
// ID in place (its insertion position is preserved) and appending new ones. A
// record whose vector length differs from the store dimension fails the whole
// batch with DimensionMismatchError before any mutation.
func (s *Store) Upsert(records []Record) error {
	for _, r := range records {
		if len(r.Vector) != s.dim {
			return &core.DimensionMismatchError{RecordID: r.ID, Want: s.dim, Got: len(r.Vector)}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		if pos, ok := s.index[r.ID]; ok {
			s.records[pos] = r
			continue
		}
		s.index[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}

	return nil
}

// Replace swaps the full record set in one exclusive section. Used for
// wholesale re-ingestion; the index is rebuilt, not incrementally diffed.
func (s *Store) Replace(records []Record) error {
	for _, r := range records {
		if len(r.Vector) != s.dim {
			return &core.DimensionMismatchError{RecordID: r.ID, Want: s.dim, Got: len(r.Vector)}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]Record, 0, len(records))
	s.index = make(map[string]int, len(records))
	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		if pos, ok := s.index[r.ID]; ok {
			s.records[pos] = r
			continue
		}
		s.index[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}

	return nil
}

// Query returns up to k records with cosine similarity to vec of at least
// minScore, sorted by similarity descending. Ties are broken by insertion
// order (earlier record wins). An empty result is returned, never an error,
// when nothing qualifies.
func (s *Store) Query(vec []float32, k int, minScore float64) []Scored {
	if k <= 0 || len(vec) != s.dim {
		return []Scored{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Scored, 0, len(s.records))
	for _, r := range s.records {
		score := cosineSimilarity(vec, r.Vector)
		if score < minScore {
			continue
		}
		matches = append(matches, Scored{Record: r, Score: score})
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}

	return matches
}

// cosineSimilarity computes the normalized dot product of two equal-length
// vectors, in [-1, 1]. Zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
