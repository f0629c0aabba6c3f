// Package worker embeds queued records and upserts them into the vector
// index in batches.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/capperchat/internal/adapters/mq/queue"
	"github.com/okian/capperchat/internal/adapters/vector"
	"github.com/okian/capperchat/pkg/logger"
	"github.com/okian/capperchat/pkg/metrics"
)

const defaultBatchSize = 50

// Embedder computes the vector for a record's text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Upserter writes vectors to the index.
type Upserter interface {
	Upsert(ctx context.Context, vectors []vector.Vector) error
}

// Source defines how workers receive records.
type Source interface {
	Dequeue() <-chan queue.Item
}

// Stats summarizes a finished run.
type Stats struct {
	Embedded int `json:"embedded"`
	Upserted int `json:"upserted"`
	Batches  int `json:"batches"`
}

// Pool runs embedding workers and a single batching collector.
type Pool struct {
	embedder    Embedder
	index       Upserter
	workerCount int
	batchSize   int
	logger      logger.Logger
}

// NewPool creates a pool. Worker count defaults to runtime.NumCPU().
func NewPool(embedder Embedder, index Upserter, opts ...Option) *Pool {
	p := &Pool{
		embedder:    embedder,
		index:       index,
		workerCount: runtime.NumCPU(),
		batchSize:   defaultBatchSize,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes src until its channel closes. The first embedding or upsert
// error cancels the remaining work and is returned.
func (p *Pool) Run(ctx context.Context, src Source) (Stats, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	vectors := make(chan vector.Vector, p.batchSize)
	var embedded int
	var mu sync.Mutex

	var wg sync.WaitGroup
	metrics.UpdateWorkerCount(p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		w := &worker{
			embedder: p.embedder,
			logger:   p.logger.Named("worker-" + strconv.Itoa(i)),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := w.run(ctx, src.Dequeue(), vectors)
			mu.Lock()
			embedded += n
			mu.Unlock()
			if err != nil {
				cancel(err)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(vectors)
		metrics.UpdateWorkerCount(0)
	}()

	stats, err := p.collect(ctx, vectors)
	if err != nil {
		cancel(err)
	}
	// Drain so workers blocked on send can exit.
	for range vectors {
	}

	mu.Lock()
	stats.Embedded = embedded
	mu.Unlock()

	// Cause is the first worker or collector error, or the parent's.
	return stats, context.Cause(ctx)
}

// collect groups vectors into batches and upserts each full batch, then the
// remainder.
func (p *Pool) collect(ctx context.Context, in <-chan vector.Vector) (Stats, error) {
	var stats Stats
	batch := make([]vector.Vector, 0, p.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.index.Upsert(ctx, batch); err != nil {
			metrics.RecordVectorError("upsert")
			p.logger.Error(ctx, "upsert failed", logger.Int("batch_size", len(batch)), logger.Error(err))
			return fmt.Errorf("upsert batch %d: %w", stats.Batches+1, err)
		}
		metrics.RecordIngestBatch(len(batch))
		stats.Batches++
		stats.Upserted += len(batch)
		p.logger.Debug(ctx, "batch upserted", logger.Int("batch", stats.Batches), logger.Int("size", len(batch)))
		batch = make([]vector.Vector, 0, p.batchSize)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return stats, nil
		case v, ok := <-in:
			if !ok {
				return stats, flush()
			}
			batch = append(batch, v)
			if len(batch) >= p.batchSize {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
	}
}

type worker struct {
	embedder Embedder
	logger   logger.Logger
}

func (w *worker) run(ctx context.Context, in <-chan queue.Item, out chan<- vector.Vector) (int, error) {
	var n int
	for {
		select {
		case <-ctx.Done():
			return n, nil
		case it, ok := <-in:
			if !ok {
				return n, nil
			}
			v, err := w.process(ctx, it)
			if err != nil {
				return n, err
			}
			select {
			case out <- v:
				n++
			case <-ctx.Done():
				return n, nil
			}
		}
	}
}

func (w *worker) process(ctx context.Context, it queue.Item) (vector.Vector, error) {
	start := time.Now()
	values, err := w.embedder.Embed(ctx, it.Text)
	metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "embedding failed", logger.String("id", it.ID), logger.Error(err))
		return vector.Vector{}, fmt.Errorf("embed %s: %w", it.ID, err)
	}
	return vector.Vector{ID: it.ID, Values: values, Metadata: it.Metadata}, nil
}
