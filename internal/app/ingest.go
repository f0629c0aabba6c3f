package service

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/capperchat/internal/adapters/mq/queue"
	"github.com/okian/capperchat/internal/adapters/mq/worker"
	"github.com/okian/capperchat/internal/adapters/vector"
	"github.com/okian/capperchat/internal/domain/dedupe"
	"github.com/okian/capperchat/internal/domain/model"
	"github.com/okian/capperchat/internal/domain/transform"
	"github.com/okian/capperchat/pkg/logger"
)

// IndexWriter is the write side of a vector index.
type IndexWriter interface {
	Upsert(ctx context.Context, vectors []vector.Vector) error
	DeleteAll(ctx context.Context) error
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Records    int           `json:"records"`
	Duplicates int           `json:"duplicates"`
	Embedded   int           `json:"embedded"`
	Upserted   int           `json:"upserted"`
	Batches    int           `json:"batches"`
	Cleared    bool          `json:"cleared"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Ingester embeds the catalog and loads it into the vector index.
type Ingester struct {
	embedder  worker.Embedder
	index     IndexWriter
	workers   int
	batchSize int
	queueSize int
	logger    logger.Logger
}

// IngestOption configures an Ingester.
type IngestOption func(*Ingester)

// WithIngestWorkers sets the embedding concurrency.
func WithIngestWorkers(n int) IngestOption {
	return func(in *Ingester) {
		if n > 0 {
			in.workers = n
		}
	}
}

// WithIngestBatchSize sets the upsert batch size.
func WithIngestBatchSize(n int) IngestOption {
	return func(in *Ingester) {
		if n > 0 {
			in.batchSize = n
		}
	}
}

// WithIngestQueueSize bounds the records waiting for a worker.
func WithIngestQueueSize(n int) IngestOption {
	return func(in *Ingester) {
		if n > 0 {
			in.queueSize = n
		}
	}
}

// WithIngestLogger sets the logger.
func WithIngestLogger(l logger.Logger) IngestOption {
	return func(in *Ingester) {
		if l != nil {
			in.logger = l
		}
	}
}

// NewIngester creates an Ingester.
func NewIngester(embedder worker.Embedder, index IndexWriter, opts ...IngestOption) *Ingester {
	in := &Ingester{
		embedder:  embedder,
		index:     index,
		workers:   runtime.NumCPU(),
		batchSize: 50,
		queueSize: 1000,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run transforms ds and upserts every record. With clear set the index is
// emptied first. Records sharing an id are embedded once.
func (in *Ingester) Run(ctx context.Context, ds *model.Dataset, clear bool) (IngestReport, error) {
	start := time.Now()
	var report IngestReport

	if clear {
		if err := in.index.DeleteAll(ctx); err != nil {
			return report, fmt.Errorf("clear index: %w", err)
		}
		report.Cleared = true
		in.logger.Info(ctx, "index cleared")
	}

	records := transform.Dataset(ds)
	seen := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(len(records)))
	items := make([]transform.Indexable, 0, len(records))
	for _, r := range records {
		if seen.SeenAndRecord(r.ID) {
			report.Duplicates++
			in.logger.Warn(ctx, "skipping duplicate record", logger.String("id", r.ID))
			continue
		}
		items = append(items, r)
	}
	report.Records = len(items)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(in.queueSize))
	produced := make(chan struct{})
	go func() {
		defer close(produced)
		defer func() { _ = q.Close() }()
		for _, it := range items {
			// Enqueue only fails once the run is cancelled; the pool
			// reports the cause.
			if err := q.Enqueue(runCtx, it); err != nil {
				return
			}
		}
	}()

	pool := worker.NewPool(in.embedder, in.index,
		worker.WithWorkers(in.workers),
		worker.WithBatchSize(in.batchSize),
		worker.WithLogger(in.logger.Named("ingest-pool")),
	)
	stats, err := pool.Run(runCtx, q)
	cancel()
	<-produced

	report.Embedded = stats.Embedded
	report.Upserted = stats.Upserted
	report.Batches = stats.Batches
	report.Elapsed = time.Since(start)

	if err != nil {
		in.logger.Error(ctx, "ingestion failed", logger.Int("upserted", report.Upserted), logger.Error(err))
		return report, fmt.Errorf("ingest: %w", err)
	}
	in.logger.Info(ctx, "ingestion complete",
		logger.Int("records", report.Records),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("upserted", report.Upserted),
		logger.Int("batches", report.Batches),
		logger.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}
