// Package search builds vector queries for catalog lookups and shapes the
// matches into flat results.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/capperchat/internal/adapters/vector"
	"github.com/okian/capperchat/internal/domain/transform"
	"github.com/okian/capperchat/pkg/logger"
	"github.com/okian/capperchat/pkg/metrics"
)

// Kind selects which record type a search covers.
type Kind string

const (
	KindHandicapper Kind = "handicapper"
	KindPackage     Kind = "package"
	KindAll         Kind = "all"
)

// DefaultTopK is used when Options.TopK is not positive.
const DefaultTopK = 10

var (
	ErrInvalidKind  = errors.New("invalid search kind")
	ErrEmptyQuery   = errors.New("empty search query")
	ErrEmbedFailed  = errors.New("embed query")
	ErrQueryFailed  = errors.New("query index")
	ErrBadDimension = errors.New("query embedding has wrong dimension")
)

// ParseKind accepts handicapper(s), package(s) and all, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "handicapper", "handicappers":
		return KindHandicapper, nil
	case "package", "packages":
		return KindPackage, nil
	case "all", "":
		return KindAll, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Options narrow a search. Zero values mean "no constraint".
type Options struct {
	Sports      []string
	MinWinRate  float64
	MaxPrice    *float64
	PackageType string
	TopK        int
}

// Result is one match flattened as {id, score, ...metadata}.
type Result struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// MarshalJSON emits metadata keys alongside id and score. id and score win
// over metadata keys of the same name.
func (r Result) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Metadata)+2)
	for k, v := range r.Metadata {
		flat[k] = v
	}
	flat["id"] = r.ID
	flat["score"] = r.Score
	return json.Marshal(flat)
}

// Type returns the record type stored in metadata, if any.
func (r Result) Type() string {
	t, _ := r.Metadata[transform.MetaType].(string)
	return t
}

// BuildFilter translates kind and options into a metadata filter. KindAll
// yields a nil filter.
func BuildFilter(kind Kind, opts Options) vector.Filter {
	sports := transform.NormalizeSports(opts.Sports)

	switch kind {
	case KindHandicapper:
		f := vector.Filter{transform.MetaType: {"$eq": transform.TypeHandicapper}}
		if len(sports) > 0 {
			f[transform.MetaSports] = map[string]any{"$in": sports}
		}
		if opts.MinWinRate > 0 {
			f[transform.MetaWinPercentage] = map[string]any{"$gte": opts.MinWinRate}
		}
		return f
	case KindPackage:
		f := vector.Filter{transform.MetaType: {"$eq": transform.TypePackage}}
		if len(sports) > 0 {
			f[transform.MetaSports] = map[string]any{"$in": sports}
		}
		if opts.MaxPrice != nil {
			f[transform.MetaPrice] = map[string]any{"$lte": *opts.MaxPrice}
		}
		if pt := strings.TrimSpace(opts.PackageType); pt != "" {
			f[transform.MetaPackageType] = map[string]any{"$eq": pt}
		}
		return f
	}
	return nil
}

// Embedder is the query-side view of llm.Embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Searcher runs semantic searches against an index.
type Searcher struct {
	embedder Embedder
	index    vector.Index
	log      logger.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Searcher.
func New(embedder Embedder, index vector.Index, opts ...Option) *Searcher {
	s := &Searcher{embedder: embedder, index: index, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search embeds query and returns the index matches in provider order.
func (s *Searcher) Search(ctx context.Context, kind Kind, query string, opts Options) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	switch kind {
	case KindHandicapper, KindPackage, KindAll:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	start := time.Now()
	results, err := s.search(ctx, kind, query, opts)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordSearch(string(kind), outcome, float64(time.Since(start).Milliseconds()))
	return results, err
}

func (s *Searcher) search(ctx context.Context, kind Kind, query string, opts Options) ([]Result, error) {
	// Providers observe embedding latency themselves; cache hits never reach them.
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedFailed, err)
	}
	if want := s.embedder.Dimension(); want > 0 && len(vec) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBadDimension, len(vec), want)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	matches, err := s.index.Query(ctx, vector.Query{
		Vector:          vec,
		TopK:            topK,
		Filter:          BuildFilter(kind, opts),
		IncludeMetadata: true,
	})
	if err != nil {
		metrics.RecordVectorError("query")
		s.log.Error(ctx, "vector query failed", logger.String("kind", string(kind)), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{ID: m.ID, Score: m.Score, Metadata: m.Metadata}
	}
	s.log.Debug(ctx, "search completed",
		logger.String("kind", string(kind)),
		logger.Int("top_k", topK),
		logger.Int("results", len(results)))
	return results, nil
}
