package vector

import (
	"errors"
	"fmt"
)

// Sentinel kinds for index errors.
var (
	ErrIndexNotReady     = errors.New("vector index not ready")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrUnsupportedFilter = errors.New("unsupported filter operator")
)

// StatusError is a non-2xx reply from the index service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pinecone %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}
