package service

import "errors"

// Sentinel errors returned by the service. The HTTP layer maps them to
// status codes.
var (
	ErrEmptyMessage       = errors.New("message is required")
	ErrDatasetUnavailable = errors.New("dataset not loaded")
	ErrNotFound           = errors.New("not found")
	ErrSearchUnavailable  = errors.New("semantic search not configured")
	ErrInvalidKind        = errors.New("invalid search kind")
	ErrEmptyQuery         = errors.New("query is required")
	ErrIngestUnavailable  = errors.New("ingestion not configured")
)
