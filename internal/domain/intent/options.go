package intent

import (
	"time"

	"github.com/okian/capperchat/pkg/logger"
)

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithMaxAttempts sets how many generations are tried before degrading.
func WithMaxAttempts(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoffUnit sets the unit of the linear backoff: attempt n waits n units.
func WithBackoffUnit(d time.Duration) Option {
	return func(c *Classifier) {
		if d >= 0 {
			c.backoffUnit = d
		}
	}
}

// WithHistoryTurns sets how many prior turns are sent to the model.
func WithHistoryTurns(n int) Option {
	return func(c *Classifier) {
		if n >= 0 {
			c.historyTurns = n
		}
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithSleep replaces the backoff wait, mainly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(c *Classifier) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithLogger sets the classifier logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.log = l
		}
	}
}
