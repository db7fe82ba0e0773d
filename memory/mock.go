package memory

import (
	"context"
	"hash/fnv"
)

// MockEmbedder is a deterministic in-memory Embedder for tests. Registered
// texts return their canned vector; unknown texts fall back to a stable
// hash-derived vector so distinct texts stay distinguishable.
type MockEmbedder struct {
	dim     int
	vectors map[string][]float32
	err     error
}

// NewMockEmbedder constructs a MockEmbedder producing vectors of dim.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{dim: dim, vectors: make(map[string][]float32)}
}

// AddVector registers a canned vector for an exact input text.
func (m *MockEmbedder) AddVector(text string, vec []float32) { m.vectors[text] = vec }

// Fail makes every subsequent Embed call return err.
func (m *MockEmbedder) Fail(err error) { m.err = err }

// Embed implements Embedder.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	if vec, ok := m.vectors[text]; ok {
		return append([]float32(nil), vec...), nil
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vec := make([]float32, m.dim)
	for i := range vec {
		seed = seed*1664525 + 1013904223
		vec[i] = float32(seed%1000)/1000 - 0.5
	}
	return vec, nil
}

// Dim implements Embedder.
func (m *MockEmbedder) Dim() int { return m.dim }
