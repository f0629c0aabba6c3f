package llm

import (
	"errors"
	"fmt"
)

// Sentinel kinds for provider errors.
var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmptyResponse     = errors.New("provider returned no content")
	ErrMissingAPIKey     = errors.New("api key not configured")
)

// DimensionError reports a vector of unexpected length.
type DimensionError struct {
	Got, Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: got %d, want %d", ErrDimensionMismatch, e.Got, e.Want)
}

func (e *DimensionError) Is(target error) bool { return target == ErrDimensionMismatch }

// StatusError is a non-2xx reply from a REST provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider request failed with status %d: %s", e.StatusCode, e.Body)
}
