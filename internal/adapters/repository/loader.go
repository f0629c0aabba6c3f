package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/capperchat/internal/domain/dedupe"
	"github.com/okian/capperchat/internal/domain/model"
	"github.com/okian/capperchat/pkg/logger"
	"github.com/okian/capperchat/pkg/metrics"
)

// Format is a dataset encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and normalizes the dataset at path. It returns ErrEmptyDataset
// (with the decoded, empty dataset) when nothing survives normalization.
func Load(ctx context.Context, path string, opts ...Option) (*model.Dataset, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(ctx, f, format, opts...)
}

// Decode reads a dataset from r and normalizes it.
func Decode(ctx context.Context, r io.Reader, format Format, opts ...Option) (*model.Dataset, error) {
	o := buildOptions(opts)

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var ds model.Dataset
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&ds); err != nil {
			return nil, fmt.Errorf("decode json dataset: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &ds); err != nil {
			return nil, fmt.Errorf("decode yaml dataset: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	out := Normalize(ctx, &ds, o.log)
	metrics.UpdateDatasetRecords("handicapper", len(out.Handicappers))
	metrics.UpdateDatasetRecords("package", len(out.Packages))

	if len(out.Handicappers) == 0 && len(out.Packages) == 0 {
		return out, ErrEmptyDataset
	}
	o.log.Info(ctx, "dataset loaded",
		logger.Int("handicappers", len(out.Handicappers)),
		logger.Int("packages", len(out.Packages)),
		logger.Int("intent_examples", len(out.IntentExamples)))
	return out, nil
}

// Normalize drops records that break the catalog invariants and returns a
// new dataset. The first record with a given id wins.
func Normalize(ctx context.Context, ds *model.Dataset, log logger.Logger) *model.Dataset {
	if log == nil {
		log = logger.Nop()
	}
	out := &model.Dataset{
		Handicappers:   make([]model.Handicapper, 0, len(ds.Handicappers)),
		Packages:       make([]model.Package, 0, len(ds.Packages)),
		IntentExamples: ds.IntentExamples,
	}

	reject := func(kind, id, reason string) {
		metrics.RecordDatasetRejected(kind, reason)
		log.Warn(ctx, "dropping record", logger.String("kind", kind), logger.String("id", id), logger.String("reason", reason))
	}

	seenCappers := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(len(ds.Handicappers)))
	for _, h := range ds.Handicappers {
		h.ID = strings.TrimSpace(h.ID)
		win := h.CurrentStats.WinPercentage
		switch {
		case h.ID == "":
			reject("handicapper", h.ID, "empty_id")
		case strings.TrimSpace(h.Name) == "":
			reject("handicapper", h.ID, "empty_name")
		case win < 0 || win > 100:
			reject("handicapper", h.ID, "win_percentage_out_of_range")
		case seenCappers.SeenAndRecord(h.ID):
			reject("handicapper", h.ID, "duplicate_id")
		default:
			out.Handicappers = append(out.Handicappers, h)
		}
	}

	seenPackages := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(len(ds.Packages)))
	for _, p := range ds.Packages {
		p.ID = strings.TrimSpace(p.ID)
		switch {
		case p.ID == "":
			reject("package", p.ID, "empty_id")
		case p.Price < 0:
			reject("package", p.ID, "negative_price")
		case seenPackages.SeenAndRecord(p.ID):
			reject("package", p.ID, "duplicate_id")
		default:
			if !seenCappers.Contains(p.CapperID) {
				log.Warn(ctx, "package references unknown handicapper",
					logger.String("id", p.ID), logger.String("capper_id", p.CapperID))
			}
			out.Packages = append(out.Packages, p)
		}
	}
	return out
}
