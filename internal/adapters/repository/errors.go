package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrEmptyDataset      = errors.New("dataset is empty")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)
