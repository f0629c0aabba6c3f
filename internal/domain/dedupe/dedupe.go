// Package dedupe tracks which record ids have already been accepted.
package dedupe

import (
	"strings"
	"sync"
)

// Deduper records seen ids so each record is accepted at most once.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(id string) bool

	// Contains reports whether id was recorded, without recording it.
	Contains(id string) bool

	// Forget removes id so it may be recorded again.
	Forget(id string)

	Size() int
}

type inMemoryDeduper struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	keyFor func(string) string
}

// NewInMemoryDeduper creates a map-backed deduper. Ids are compared after
// trimming surrounding whitespace unless WithKeyFunc overrides it.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:   make(map[string]struct{}),
		keyFor: strings.TrimSpace,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(id string) bool {
	key := d.keyFor(id)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Contains(id string) bool {
	key := d.keyFor(id)

	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[key]
	return ok
}

func (d *inMemoryDeduper) Forget(id string) {
	key := d.keyFor(id)

	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
