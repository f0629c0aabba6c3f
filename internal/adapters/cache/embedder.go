package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/capperchat/pkg/logger"
	"github.com/okian/capperchat/pkg/metrics"
)

// Embedder is the subset of llm.Embedder the cache wraps.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
	Dimension() int
}

// CachedEmbedder memoizes another Embedder. Cache failures never fail an
// embedding; they are logged and the inner embedder is called.
type CachedEmbedder struct {
	inner Embedder
	cache Client
	ttl   time.Duration
	log   logger.Logger
}

// NewCachedEmbedder wraps inner. A zero ttl keeps entries until evicted.
func NewCachedEmbedder(inner Embedder, c Client, ttl time.Duration, log logger.Logger) *CachedEmbedder {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedEmbedder{inner: inner, cache: c, ttl: ttl, log: log}
}

// Key is the cache key for text under model.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return "emb:" + hex.EncodeToString(sum[:])
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(e.inner.Model(), text)

	raw, err := e.cache.Get(ctx, key)
	switch {
	case err == nil:
		if vec, decErr := decodeVector(raw); decErr == nil && (e.Dimension() <= 0 || len(vec) == e.Dimension()) {
			metrics.RecordEmbeddingCache("hit")
			return vec, nil
		}
		e.log.Warn(ctx, "discarding corrupt cached embedding", logger.String("key", key))
		metrics.RecordEmbeddingCache("error")
	case errors.Is(err, ErrCacheMiss):
		metrics.RecordEmbeddingCache("miss")
	default:
		e.log.Warn(ctx, "embedding cache read failed", logger.Error(err))
		metrics.RecordEmbeddingCache("error")
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, key, encodeVector(vec), e.ttl); err != nil {
		e.log.Warn(ctx, "embedding cache write failed", logger.Error(err))
	}
	return vec, nil
}

func (e *CachedEmbedder) Model() string  { return e.inner.Model() }
func (e *CachedEmbedder) Dimension() int { return e.inner.Dimension() }

func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
