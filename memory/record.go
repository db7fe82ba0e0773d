package memory

// Record is a single embedded fact held by the Store. The ID is stable across
// re-ingestion so refreshes replace rather than duplicate.
type Record struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Vector   []float32         `json:"vector"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Scored pairs a record with its similarity to a query vector.
type Scored struct {
	Record
	Score float64 `json:"score"`
}
