package memory

import "context"

// Embedder converts text into a fixed-dimension vector. Implementations wrap
// external embedding services and may fail or rate-limit; callers map those
// failures into the shared error taxonomy.
type Embedder interface {
	// Embed returns the embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dim returns the dimension of vectors produced by this embedder.
	Dim() int
}
