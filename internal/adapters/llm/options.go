package llm

import (
	"net/http"
	"time"

	"github.com/okian/capperchat/pkg/logger"
)

type settings struct {
	model          string
	embeddingModel string
	dimension      int
	baseURL        string
	maxTokens      int
	temperature    *float32
	httpClient     *http.Client
	log            logger.Logger
}

// Option configures a provider.
type Option func(*settings)

// WithModel sets the generative model.
func WithModel(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.model = name
		}
	}
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.embeddingModel = name
		}
	}
}

// WithDimension sets the expected embedding length.
func WithDimension(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.dimension = n
		}
	}
}

// WithBaseURL points the provider at another endpoint, e.g. a proxy.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		if url != "" {
			s.baseURL = url
		}
	}
}

// WithMaxTokens sets the default completion cap when a prompt has none.
func WithMaxTokens(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(s *settings) {
		s.temperature = &t
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithLogger sets the provider logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

func newSettings(model, embeddingModel, baseURL string, opts []Option) settings {
	s := settings{
		model:          model,
		embeddingModel: embeddingModel,
		dimension:      DefaultDimension,
		baseURL:        baseURL,
		maxTokens:      defaultMaxTokens,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) tokens(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.maxTokens
}
