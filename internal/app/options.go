package service

import (
	"time"

	"github.com/okian/capperchat/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClassifier enables the model fallback for messages no keyword matches.
func WithClassifier(c Classifier) Option {
	return func(s *Service) {
		s.classifier = c
	}
}

// WithSearcher enables semantic search.
func WithSearcher(sr Searcher) Option {
	return func(s *Service) {
		s.searcher = sr
	}
}

// WithMaxMessageLength sets the rune limit messages are truncated to.
func WithMaxMessageLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxMessageLength = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRequestIDs overrides request id generation.
func WithRequestIDs(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}
