// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keys are flat, lowercase and underscore separated so env and YAML agree.
// - New(ctx) returns a Config populated with defaults.
// - Errors returned by Load wrap this package's sentinels.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Provider names accepted by llm_provider and vector_provider.
const (
	ProviderNone     = "none"
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderMemory   = "memory"
	ProviderPinecone = "pinecone"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataPath points at the JSON or YAML dataset.
	DataPath string `koanf:"data_path"`

	// MaxMessageLength truncates chat messages (in runes).
	MaxMessageLength int `koanf:"max_message_length"`

	// HistoryTurns caps the conversation turns sent to the classifier.
	HistoryTurns int `koanf:"history_turns"`

	// WriteTimeoutS must cover a full classifier retry chain.
	WriteTimeoutS int `koanf:"write_timeout_s"`

	ClassifierEnabled     bool `koanf:"classifier_enabled"`
	ClassifierMaxAttempts int  `koanf:"classifier_max_attempts"`
	ClassifierBackoffMS   int  `koanf:"classifier_backoff_ms"`

	// LLMProvider selects the generative and embedding backend.
	LLMProvider        string `koanf:"llm_provider"`
	LLMAPIKey          string `koanf:"llm_api_key"`
	LLMModel           string `koanf:"llm_model"`
	LLMBaseURL         string `koanf:"llm_base_url"`
	LLMMaxTokens       int    `koanf:"llm_max_tokens"`
	EmbeddingModel     string `koanf:"embedding_model"`
	EmbeddingDimension int    `koanf:"embedding_dimension"`

	// VectorProvider selects the vector index backend.
	VectorProvider        string `koanf:"vector_provider"`
	PineconeAPIKey        string `koanf:"pinecone_api_key"`
	PineconeIndex         string `koanf:"pinecone_index"`
	PineconeCloud         string `koanf:"pinecone_cloud"`
	PineconeRegion        string `koanf:"pinecone_region"`
	PineconeControlURL    string `koanf:"pinecone_control_url"`
	IndexReadyIntervalMS  int    `koanf:"index_ready_interval_ms"`
	IndexReadyMaxAttempts int    `koanf:"index_ready_max_attempts"`

	// RedisAddr enables the embedding cache when non-empty.
	RedisAddr         string `koanf:"redis_addr"`
	RedisPassword     string `koanf:"redis_password"`
	RedisDB           int    `koanf:"redis_db"`
	EmbeddingCacheTTL int    `koanf:"embedding_cache_ttl_s"`

	IngestBatchSize   int `koanf:"ingest_batch_size"`
	IngestWorkerCount int `koanf:"ingest_worker_count"`
	IngestQueueSize   int `koanf:"ingest_queue_size"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":3001",
		DataPath:              "data/sample-data.json",
		MaxMessageLength:      500,
		HistoryTurns:          4,
		WriteTimeoutS:         90,
		ClassifierEnabled:     true,
		ClassifierMaxAttempts: 10,
		ClassifierBackoffMS:   1000,
		LLMProvider:           ProviderNone,
		LLMMaxTokens:          150,
		EmbeddingDimension:    1536,
		VectorProvider:        ProviderNone,
		PineconeIndex:         "capper-index",
		PineconeCloud:         "aws",
		PineconeRegion:        "us-east-1",
		PineconeControlURL:    "https://api.pinecone.io",
		IndexReadyIntervalMS:  1000,
		IndexReadyMaxAttempts: 60,
		EmbeddingCacheTTL:     86400,
		IngestBatchSize:       50,
		IngestWorkerCount:     runtime.NumCPU(),
		IngestQueueSize:       1000,
	}
}

// WriteTimeout returns the HTTP write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutS) * time.Second
}

// ClassifierBackoff returns the backoff unit between classifier attempts.
func (c *Config) ClassifierBackoff() time.Duration {
	return time.Duration(c.ClassifierBackoffMS) * time.Millisecond
}

// IndexReadyInterval returns the index readiness poll interval.
func (c *Config) IndexReadyInterval() time.Duration {
	return time.Duration(c.IndexReadyIntervalMS) * time.Millisecond
}

// CacheTTL returns the embedding cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.EmbeddingCacheTTL) * time.Second
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.VectorProvider = strings.ToLower(strings.TrimSpace(c.VectorProvider))

	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxMessageLength <= 0:
		return fmt.Errorf("%w: max_message_length must be positive", ErrInvalidConfig)
	case c.HistoryTurns < 0:
		return fmt.Errorf("%w: history_turns must not be negative", ErrInvalidConfig)
	case c.ClassifierMaxAttempts <= 0:
		return fmt.Errorf("%w: classifier_max_attempts must be positive", ErrInvalidConfig)
	case c.ClassifierBackoffMS < 0:
		return fmt.Errorf("%w: classifier_backoff_ms must not be negative", ErrInvalidConfig)
	case c.EmbeddingDimension <= 0:
		return fmt.Errorf("%w: embedding_dimension must be positive", ErrInvalidConfig)
	case c.IngestBatchSize <= 0:
		return fmt.Errorf("%w: ingest_batch_size must be positive", ErrInvalidConfig)
	case c.IngestWorkerCount <= 0:
		return fmt.Errorf("%w: ingest_worker_count must be positive", ErrInvalidConfig)
	case c.IngestQueueSize <= 0:
		return fmt.Errorf("%w: ingest_queue_size must be positive", ErrInvalidConfig)
	case c.IndexReadyMaxAttempts <= 0:
		return fmt.Errorf("%w: index_ready_max_attempts must be positive", ErrInvalidConfig)
	}

	switch c.LLMProvider {
	case ProviderNone:
	case ProviderGemini, ProviderOpenAI:
		if c.LLMAPIKey == "" {
			return fmt.Errorf("%w: llm_api_key is required for %s", ErrInvalidConfig, c.LLMProvider)
		}
	default:
		return fmt.Errorf("%w: unknown llm_provider %q", ErrInvalidConfig, c.LLMProvider)
	}

	switch c.VectorProvider {
	case ProviderNone, ProviderMemory:
	case ProviderPinecone:
		if c.PineconeAPIKey == "" || c.PineconeIndex == "" {
			return fmt.Errorf("%w: pinecone_api_key and pinecone_index are required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown vector_provider %q", ErrInvalidConfig, c.VectorProvider)
	}

	if c.VectorProvider != ProviderNone && c.LLMProvider == ProviderNone {
		return fmt.Errorf("%w: vector_provider %s needs an llm_provider for embeddings", ErrInvalidConfig, c.VectorProvider)
	}
	return nil
}
