// Package repository loads the static catalog and serves read-only lookups.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/capperchat/internal/domain/model"
)

// Store provides read access to the catalog.
type Store interface {
	// Dataset returns the full catalog. Callers must not modify it.
	Dataset(ctx context.Context) *model.Dataset

	Handicappers(ctx context.Context) []model.Handicapper
	// Handicapper returns ErrNotFound for unknown ids.
	Handicapper(ctx context.Context, id string) (model.Handicapper, error)

	Packages(ctx context.Context) []model.Package
	// Package returns ErrNotFound for unknown ids.
	Package(ctx context.Context, id string) (model.Package, error)
	// PackagesByCapper returns ErrNotFound when the handicapper does not exist.
	PackagesByCapper(ctx context.Context, capperID string) ([]model.Package, error)
}

// MemoryStore is an immutable, index-backed Store.
type MemoryStore struct {
	ds         *model.Dataset
	cappers    map[string]int
	packages   map[string]int
	byCapperID map[string][]int
}

// NewMemoryStore indexes ds. ds must not be modified afterwards.
func NewMemoryStore(ds *model.Dataset) *MemoryStore {
	if ds == nil {
		ds = &model.Dataset{}
	}
	s := &MemoryStore{
		ds:         ds,
		cappers:    make(map[string]int, len(ds.Handicappers)),
		packages:   make(map[string]int, len(ds.Packages)),
		byCapperID: make(map[string][]int),
	}
	for i, h := range ds.Handicappers {
		if _, ok := s.cappers[h.ID]; !ok {
			s.cappers[h.ID] = i
		}
	}
	for i, p := range ds.Packages {
		if _, ok := s.packages[p.ID]; !ok {
			s.packages[p.ID] = i
			s.byCapperID[p.CapperID] = append(s.byCapperID[p.CapperID], i)
		}
	}
	return s
}

func (s *MemoryStore) Dataset(_ context.Context) *model.Dataset { return s.ds }

func (s *MemoryStore) Handicappers(_ context.Context) []model.Handicapper {
	return append([]model.Handicapper(nil), s.ds.Handicappers...)
}

func (s *MemoryStore) Handicapper(_ context.Context, id string) (model.Handicapper, error) {
	i, ok := s.cappers[id]
	if !ok {
		return model.Handicapper{}, fmt.Errorf("handicapper %q: %w", id, ErrNotFound)
	}
	return s.ds.Handicappers[i], nil
}

func (s *MemoryStore) Packages(_ context.Context) []model.Package {
	return append([]model.Package(nil), s.ds.Packages...)
}

func (s *MemoryStore) Package(_ context.Context, id string) (model.Package, error) {
	i, ok := s.packages[id]
	if !ok {
		return model.Package{}, fmt.Errorf("package %q: %w", id, ErrNotFound)
	}
	return s.ds.Packages[i], nil
}

func (s *MemoryStore) PackagesByCapper(_ context.Context, capperID string) ([]model.Package, error) {
	if _, ok := s.cappers[capperID]; !ok {
		return nil, fmt.Errorf("handicapper %q: %w", capperID, ErrNotFound)
	}
	idx := s.byCapperID[capperID]
	out := make([]model.Package, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.ds.Packages[i])
	}
	return out, nil
}
