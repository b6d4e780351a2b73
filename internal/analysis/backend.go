package analysis

import (
	"fmt"
	"image"
	"sort"
	"sync"
)

// Backend runs the two image-processing halves of the pipeline.
type Backend interface {
	Name() string
	Regions(img image.Image, opts Options) ([]Region, error)
	Features(img image.Image, opts Options) (Features, error)
}

// DefaultBackend is the pure Go implementation.
const DefaultBackend = "native"

var (
	backendsMu sync.RWMutex
	backends   = map[string]func() Backend{
		DefaultBackend: func() Backend { return nativeBackend{} },
	}
)

// RegisterBackend makes a backend available under name. Registering the same
// name twice replaces the earlier factory.
func RegisterBackend(name string, factory func() Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = factory
}

// NewBackend returns the backend registered under name. An empty name selects
// DefaultBackend.
func NewBackend(name string) (Backend, error) {
	if name == "" {
		name = DefaultBackend
	}
	backendsMu.RLock()
	factory, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, Backends())
	}
	return factory(), nil
}

// Backends lists registered backend names in sorted order.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type nativeBackend struct{}

func (nativeBackend) Name() string { return DefaultBackend }

func (nativeBackend) Regions(img image.Image, opts Options) ([]Region, error) {
	return AnalyzeRegions(img, opts)
}

func (nativeBackend) Features(img image.Image, opts Options) (Features, error) {
	return ExtractFeatures(img, opts)
}
