// Package vector provides the similarity index used for semantic search:
// a Pinecone REST client and an in-memory cosine index with the same
// metadata filter semantics.
package vector

import "context"

// Filter maps a metadata field to operator/operand pairs, e.g.
// {"price": {"$lte": 30}}. Fields are ANDed.
type Filter map[string]map[string]any

// Vector is a stored embedding and its metadata.
type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Query is a nearest-neighbour request.
type Query struct {
	Vector          []float32
	TopK            int
	Filter          Filter
	IncludeMetadata bool
}

// Match is one query hit. Higher scores are closer.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Index stores and queries vectors.
type Index interface {
	Upsert(ctx context.Context, vectors []Vector) error
	Query(ctx context.Context, q Query) ([]Match, error)
	DeleteAll(ctx context.Context) error
}
