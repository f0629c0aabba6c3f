package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process cosine-similarity index. It is meant for local
// runs and tests; contents do not survive a restart.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string]Vector
}

// NewMemory creates an empty index accepting vectors of the given length.
// A non-positive dimension accepts any length but query and stored vectors
// must still agree.
func NewMemory(dimension int) *Memory {
	return &Memory{dimension: dimension, vectors: make(map[string]Vector)}
}

// Upsert inserts or replaces vectors by id.
func (m *Memory) Upsert(_ context.Context, vectors []Vector) error {
	for _, v := range vectors {
		if m.dimension > 0 && len(v.Values) != m.dimension {
			return fmt.Errorf("upsert %q: %w: got %d, want %d", v.ID, ErrDimensionMismatch, len(v.Values), m.dimension)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		meta := make(map[string]any, len(v.Metadata))
		for k, val := range v.Metadata {
			meta[k] = val
		}
		m.vectors[v.ID] = Vector{ID: v.ID, Values: append([]float32(nil), v.Values...), Metadata: meta}
	}
	return nil
}

// Query returns the TopK most similar vectors passing the filter.
func (m *Memory) Query(_ context.Context, q Query) ([]Match, error) {
	if m.dimension > 0 && len(q.Vector) != m.dimension {
		return nil, fmt.Errorf("query: %w: got %d, want %d", ErrDimensionMismatch, len(q.Vector), m.dimension)
	}
	if q.TopK <= 0 {
		return []Match{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.vectors))
	for _, v := range m.vectors {
		if len(v.Values) != len(q.Vector) {
			continue
		}
		ok, err := q.Filter.Matches(v.Metadata)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		if !ok {
			continue
		}
		match := Match{ID: v.ID, Score: cosine(q.Vector, v.Values)}
		if q.IncludeMetadata {
			match.Metadata = v.Metadata
		}
		matches = append(matches, match)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > q.TopK {
		matches = matches[:q.TopK]
	}
	return matches, nil
}

// DeleteAll empties the index.
func (m *Memory) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	m.vectors = make(map[string]Vector)
	m.mu.Unlock()
	return nil
}

// Count returns the number of stored vectors.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
