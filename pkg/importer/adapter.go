// CLAUDE:SUMMARY Registry of import adapters that download upstream legal-form lists and write store resources.
package importer

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

var ErrUnknownSource = eris.New("unknown import source")

// Result summarizes one import.
type Result struct {
	Countries int
	Languages int
	Terms     int
}

// Adapter downloads a legal-form source and writes legal-form resources.
type Adapter interface {
	// ID returns the unique identifier of this adapter (e.g. "gleif-elf").
	ID() string
	// Description returns a human-readable description.
	Description() string
	// DefaultURL returns the default source URL used for seeding the database.
	DefaultURL() string
	// License returns the license identifier for this source (e.g. "CC0").
	License() string
	// Import downloads the source from sourceURL, transforms it and writes
	// available_legal_forms.json plus one <cc>_legal_forms.json per country
	// into outputDir.
	Import(ctx context.Context, sourceURL, outputDir string) (*Result, error)
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Get returns a registered adapter by ID.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownSource, "%q", id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
