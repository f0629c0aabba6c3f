package intent

import (
	"context"
	"time"

	"github.com/okian/capperchat/internal/domain/model"
	"github.com/okian/capperchat/pkg/logger"
	"github.com/okian/capperchat/pkg/metrics"
)

const (
	defaultMaxAttempts  = 10
	defaultBackoffUnit  = time.Second
	defaultHistoryTurns = 4
	defaultMaxTokens    = 150
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, p model.Prompt) (string, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Classifier asks a generative model for an intent, retrying with linear
// backoff until the output validates or attempts run out.
type Classifier struct {
	gen          Generator
	maxAttempts  int
	backoffUnit  time.Duration
	historyTurns int
	maxTokens    int
	sleep        SleepFunc
	log          logger.Logger
}

// NewClassifier creates a classifier over gen.
func NewClassifier(gen Generator, opts ...Option) *Classifier {
	c := &Classifier{
		gen:          gen,
		maxAttempts:  defaultMaxAttempts,
		backoffUnit:  defaultBackoffUnit,
		historyTurns: defaultHistoryTurns,
		maxTokens:    defaultMaxTokens,
		sleep:        sleepContext,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify never fails: after the last attempt, or when ctx ends during a
// backoff, it returns a general/low result with Validated false.
func (c *Classifier) Classify(ctx context.Context, message string, history []model.ConversationTurn) model.IntentResult {
	prompt := BuildPrompt(message, history, c.historyTurns, c.maxTokens)
	log := c.log.With(logger.String("query", message))

	var lastErr error
	for attempt := 1; ; attempt++ {
		res, err := c.attempt(ctx, log, prompt, message, attempt)
		if err == nil {
			metrics.RecordClassifierAttempts(attempt)
			log.Info(ctx, "intent classified",
				logger.String("intent", string(res.Intent)),
				logger.String("confidence", string(res.Confidence)),
				logger.Int("attempt", attempt))
			return res
		}
		lastErr = err

		if attempt >= c.maxAttempts {
			log.Error(ctx, "classification exhausted retries", logger.Int("attempt", attempt), logger.Error(err))
			return c.degrade(message, attempt, lastErr)
		}

		delay := time.Duration(attempt) * c.backoffUnit
		log.Warn(ctx, "classification attempt failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Error(err))

		if err := c.sleep(ctx, delay); err != nil {
			log.Warn(ctx, "classification cancelled during backoff", logger.Int("attempt", attempt), logger.Error(err))
			return c.degrade(message, attempt, err)
		}
	}
}

func (c *Classifier) attempt(ctx context.Context, log logger.Logger, prompt model.Prompt, message string, attempt int) (model.IntentResult, error) {
	raw, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		metrics.RecordClassifierError()
		return model.IntentResult{}, &providerError{err: err}
	}
	log.Debug(ctx, "classifier output", logger.Int("attempt", attempt), logger.String("raw", raw))

	out, err := ParseOutput(raw)
	if err != nil {
		metrics.RecordClassifierInvalid(reasonUnparseable)
		return model.IntentResult{}, &validationError{reason: err.Error()}
	}
	if code, reason := validate(out, message); code != "" {
		metrics.RecordClassifierInvalid(code)
		return model.IntentResult{}, &validationError{reason: reason}
	}

	return model.IntentResult{
		Query:      out.Query,
		Intent:     model.Intent(out.Intent),
		Confidence: model.Confidence(out.Confidence),
		Reasoning:  out.Reasoning,
		Validated:  true,
		Attempt:    attempt,
	}, nil
}

func (c *Classifier) degrade(message string, attempt int, cause error) model.IntentResult {
	metrics.RecordClassifierAttempts(attempt)
	metrics.RecordClassifierDegraded()

	res := model.IntentResult{
		Query:      message,
		Intent:     model.IntentGeneral,
		Confidence: model.ConfidenceLow,
		Validated:  false,
		Attempt:    attempt,
	}
	switch e := cause.(type) {
	case *validationError:
		res.Reasoning = "Fallback as validation failed"
	case *providerError:
		res.Reasoning = "Fallback due to error"
		res.Error = e.err.Error()
	default:
		res.Reasoning = "Fallback as classification was interrupted"
		if cause != nil {
			res.Error = cause.Error()
		}
	}
	return res
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
