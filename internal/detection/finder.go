package detection

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
	"github.com/ironsheep/doc-autocapture/internal/imaging"
)

// ErrUnknownBackend is returned by NewFinder for an unregistered backend name.
var ErrUnknownBackend = errors.New("unknown detection backend")

// BackendNative is the pure-Go detection backend. It is always available.
const BackendNative = "native"

// Finder locates the document quadrilateral in a raw frame. Scratch buffers
// are drawn from arena, which the caller releases after the tick.
type Finder interface {
	Find(f imaging.Frame, arena *imaging.Arena) (geometry.Quad, bool, error)
}

// FinderFactory builds a Finder from extraction options.
type FinderFactory func(opts ExtractorOptions) (Finder, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]FinderFactory{
		BackendNative: func(opts ExtractorOptions) (Finder, error) {
			return NewNativeFinder(opts), nil
		},
	}
)

// RegisterBackend makes a backend available to NewFinder under name,
// replacing any earlier registration.
func RegisterBackend(name string, factory FinderFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = factory
}

// Backends returns the registered backend names, sorted.
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

// NewFinder builds the named backend. The empty name selects the native one.
func NewFinder(name string, opts ExtractorOptions) (Finder, error) {
	if name == "" {
		name = BackendNative
	}
	backendsMu.RLock()
	factory, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, Backends())
	}
	return factory(opts)
}

// NativeFinder runs the pure-Go preprocessing and extraction pipeline.
type NativeFinder struct {
	extractor *Extractor
}

// NewNativeFinder creates the pure-Go finder.
func NewNativeFinder(opts ExtractorOptions) *NativeFinder {
	return &NativeFinder{extractor: NewExtractor(opts)}
}

// Find preprocesses the frame into an edge map and extracts the document.
func (n *NativeFinder) Find(f imaging.Frame, arena *imaging.Arena) (geometry.Quad, bool, error) {
	edges, err := imaging.Preprocess(f, arena)
	if err != nil {
		return geometry.Quad{}, false, fmt.Errorf("preprocess: %w", err)
	}
	return n.extractor.Extract(edges)
}
