package descriptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/loomcode/loomcode/adapters"
	"github.com/loomcode/loomcode/providererr"
)

// Loader locates, parses, validates, and caches adapter descriptors. The
// zero value is ready to use; NewLoader only exists to let callers inject a
// logger and override search roots in tests.
type Loader struct {
	mu    sync.RWMutex
	cache map[string]*Descriptor

	// searchRoots are directories searched, in order, before falling back
	// to the embedded copies. Each is joined with "<type>/config.json".
	searchRoots []string

	logger zerolog.Logger
}

// NewLoader builds a Loader that searches roots (in order) before falling
// back to the embedded descriptors.
func NewLoader(roots []string, logger zerolog.Logger) *Loader {
	return &Loader{
		cache:       make(map[string]*Descriptor),
		searchRoots: roots,
		logger:      logger,
	}
}

var (
	defaultLoaderOnce sync.Once
	defaultLoader     *Loader
)

// DefaultLoader returns the process-wide Loader, built on first call with
// the standard search order: an operator-configured override directory,
// then the directory the running binary lives in, then the process's
// current working directory, then the embedded fallback.
func DefaultLoader() *Loader {
	defaultLoaderOnce.Do(func() {
		var roots []string
		if dir := os.Getenv("LOOMCODE_ADAPTERS_DIR"); dir != "" {
			roots = append(roots, dir)
		}
		if exe, err := os.Executable(); err == nil {
			roots = append(roots, filepath.Join(filepath.Dir(exe), "adapters"))
		}
		if cwd, err := os.Getwd(); err == nil {
			roots = append(roots, filepath.Join(cwd, "adapters"))
		}
		defaultLoader = NewLoader(roots, log.Logger)
	})
	return defaultLoader
}

// Load returns the descriptor for adapterType, loading and caching it on
// first use. Subsequent calls for the same adapterType return the cached
// value without touching the filesystem again. The cache belongs to the
// Loader and is read-mostly; the Loader from DefaultLoader is shared
// process-wide, so descriptors are loaded once and shared across adapters.
func (l *Loader) Load(adapterType string) (*Descriptor, error) {
	l.mu.RLock()
	if d, ok := l.cache[adapterType]; ok {
		l.mu.RUnlock()
		return d, nil
	}
	l.mu.RUnlock()

	raw, err := l.find(adapterType)
	if err != nil {
		return nil, err
	}

	d, err := parse(raw)
	if err != nil {
		return nil, &providererr.DescriptorInvalid{AdapterType: adapterType, Reason: err.Error()}
	}
	if err := d.Validate(); err != nil {
		return nil, &providererr.DescriptorInvalid{AdapterType: adapterType, Reason: err.Error()}
	}

	l.mu.Lock()
	if l.cache == nil {
		l.cache = make(map[string]*Descriptor)
	}
	l.cache[adapterType] = d
	l.mu.Unlock()

	return d, nil
}

// Reload forces a re-read of adapterType's descriptor, bypassing the
// cache, and replaces the cached entry. The cache is otherwise never
// silently invalidated - callers that want fresher descriptors must call
// this explicitly.
func (l *Loader) Reload(adapterType string) (*Descriptor, error) {
	l.mu.Lock()
	delete(l.cache, adapterType)
	l.mu.Unlock()
	return l.Load(adapterType)
}

func (l *Loader) find(adapterType string) ([]byte, error) {
	for _, root := range l.searchRoots {
		path := filepath.Join(root, adapterType, "config.json")
		raw, err := os.ReadFile(path)
		if err == nil {
			l.logger.Debug().Str("adapterType", adapterType).Str("path", path).Msg("loaded adapter descriptor from filesystem")
			return raw, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn().Err(err).Str("path", path).Msg("error reading candidate descriptor path")
		}
	}

	embeddedPath := fmt.Sprintf("%s/config.json", adapterType)
	raw, err := adapters.Shipped.ReadFile(embeddedPath)
	if err == nil {
		l.logger.Debug().Str("adapterType", adapterType).Msg("loaded adapter descriptor from embedded fallback")
		return raw, nil
	}

	return nil, &providererr.DescriptorNotFound{AdapterType: adapterType}
}
