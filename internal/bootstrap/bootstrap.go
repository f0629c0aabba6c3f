// Package bootstrap builds the runtime components named by a Config. Both
// the server and the ingest command start from it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/capperchat/internal/adapters/cache"
	"github.com/okian/capperchat/internal/adapters/llm"
	"github.com/okian/capperchat/internal/adapters/repository"
	"github.com/okian/capperchat/internal/adapters/search"
	"github.com/okian/capperchat/internal/adapters/vector"
	service "github.com/okian/capperchat/internal/app"
	"github.com/okian/capperchat/internal/config"
	"github.com/okian/capperchat/internal/domain/intent"
	"github.com/okian/capperchat/internal/domain/model"
	"github.com/okian/capperchat/pkg/logger"
)

const embeddingCacheSize = 10000

// Components are the optional collaborators a Config enables. Nil fields
// are disabled.
type Components struct {
	Provider llm.Provider
	Embedder llm.Embedder
	Index    vector.Index
	Cache    cache.Client

	closers []func() error
}

// Build creates the providers named by cfg. It does not contact Pinecone;
// the index is ensured lazily on first use.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*Components, error) {
	if log == nil {
		log = logger.Nop()
	}
	c := &Components{}

	provider, err := newProvider(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	c.Provider = provider

	if provider != nil {
		c.Embedder = provider
		if cfg.RedisAddr != "" {
			rc, err := cache.NewRedisClient(ctx, cache.RedisConfig{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err != nil {
				log.Warn(ctx, "embedding cache disabled; falling back to in-process cache",
					logger.String("redis_addr", cfg.RedisAddr), logger.Error(err))
				c.Cache = cache.NewMemoryClient(embeddingCacheSize)
			} else {
				c.Cache = rc
				c.closers = append(c.closers, rc.Close)
			}
		} else {
			c.Cache = cache.NewMemoryClient(embeddingCacheSize)
		}
		c.Embedder = cache.NewCachedEmbedder(provider, c.Cache, cfg.CacheTTL(), log.Named("embedding-cache"))
	}

	switch cfg.VectorProvider {
	case config.ProviderMemory:
		c.Index = vector.NewMemory(cfg.EmbeddingDimension)
	case config.ProviderPinecone:
		c.Index = vector.NewPinecone(cfg.PineconeAPIKey, cfg.PineconeIndex,
			vector.WithControlURL(cfg.PineconeControlURL),
			vector.WithDimension(cfg.EmbeddingDimension),
			vector.WithServerless(cfg.PineconeCloud, cfg.PineconeRegion),
			vector.WithReadyWait(cfg.IndexReadyInterval(), cfg.IndexReadyMaxAttempts),
			vector.WithLogger(log.Named("pinecone")),
		)
	}

	log.Info(ctx, "components built",
		logger.String("llm_provider", cfg.LLMProvider),
		logger.String("vector_provider", cfg.VectorProvider),
		logger.Bool("redis_cache", cfg.RedisAddr != "" && len(c.closers) > 0))
	return c, nil
}

func newProvider(ctx context.Context, cfg *config.Config, log logger.Logger) (llm.Provider, error) {
	opts := []llm.Option{
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithDimension(cfg.EmbeddingDimension),
		llm.WithLogger(log.Named("llm")),
	}
	if cfg.LLMModel != "" {
		opts = append(opts, llm.WithModel(cfg.LLMModel))
	}
	if cfg.EmbeddingModel != "" {
		opts = append(opts, llm.WithEmbeddingModel(cfg.EmbeddingModel))
	}
	if cfg.LLMBaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLMBaseURL))
	}

	switch cfg.LLMProvider {
	case config.ProviderGemini:
		p, err := llm.NewGemini(ctx, cfg.LLMAPIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("build gemini provider: %w", err)
		}
		return p, nil
	case config.ProviderOpenAI:
		p, err := llm.NewOpenAI(cfg.LLMAPIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("build openai provider: %w", err)
		}
		return p, nil
	}
	return nil, nil
}

// LoadDataset reads cfg.DataPath. Failures are logged and yield an empty
// dataset, which the chat endpoint reports as unavailable.
func LoadDataset(ctx context.Context, cfg *config.Config, log logger.Logger) *model.Dataset {
	if log == nil {
		log = logger.Nop()
	}
	ds, err := repository.Load(ctx, cfg.DataPath, repository.WithLogger(log.Named("repository")))
	switch {
	case err == nil:
		return ds
	case errors.Is(err, repository.ErrEmptyDataset):
		log.Warn(ctx, "dataset has no usable records", logger.String("path", cfg.DataPath))
		return ds
	default:
		log.Error(ctx, "dataset not loaded", logger.String("path", cfg.DataPath), logger.Error(err))
		return &model.Dataset{}
	}
}

// Service assembles the chat service over ds.
func (c *Components) Service(cfg *config.Config, ds *model.Dataset, log logger.Logger) *service.Service {
	if log == nil {
		log = logger.Nop()
	}
	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithMaxMessageLength(cfg.MaxMessageLength),
	}
	if c.Provider != nil && cfg.ClassifierEnabled {
		opts = append(opts, service.WithClassifier(intent.NewClassifier(c.Provider,
			intent.WithMaxAttempts(cfg.ClassifierMaxAttempts),
			intent.WithBackoffUnit(cfg.ClassifierBackoff()),
			intent.WithHistoryTurns(cfg.HistoryTurns),
			intent.WithMaxTokens(cfg.LLMMaxTokens),
			intent.WithLogger(log.Named("classifier")),
		)))
	}
	if c.Embedder != nil && c.Index != nil {
		opts = append(opts, service.WithSearcher(search.New(c.Embedder, c.Index, search.WithLogger(log.Named("search")))))
	}
	return service.New(repository.NewMemoryStore(ds), opts...)
}

// Ingester assembles the ingestion job. It needs both an embedder and an
// index.
func (c *Components) Ingester(cfg *config.Config, log logger.Logger) (*service.Ingester, error) {
	if log == nil {
		log = logger.Nop()
	}
	if c.Embedder == nil || c.Index == nil {
		return nil, service.ErrIngestUnavailable
	}
	return service.NewIngester(c.Embedder, c.Index,
		service.WithIngestWorkers(cfg.IngestWorkerCount),
		service.WithIngestBatchSize(cfg.IngestBatchSize),
		service.WithIngestQueueSize(cfg.IngestQueueSize),
		service.WithIngestLogger(log.Named("ingest")),
	), nil
}

// SeedMemoryIndex fills the in-process index from ds. The memory index lives
// only as long as this process, so a server using it has to ingest at
// startup. Other providers and empty datasets are left alone and report
// false.
func (c *Components) SeedMemoryIndex(ctx context.Context, cfg *config.Config, ds *model.Dataset, log logger.Logger) (bool, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.VectorProvider != config.ProviderMemory || ds.Empty() {
		return false, nil
	}
	in, err := c.Ingester(cfg, log)
	if err != nil {
		return false, err
	}
	report, err := in.Run(ctx, ds, false)
	if err != nil {
		return false, fmt.Errorf("seed memory index: %w", err)
	}
	log.Info(ctx, "memory index seeded",
		logger.Int("upserted", report.Upserted),
		logger.Duration("elapsed", report.Elapsed))
	return true, nil
}

// Close releases connections opened by Build.
func (c *Components) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
