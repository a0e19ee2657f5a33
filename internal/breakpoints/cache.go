package breakpoints

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"
)

// Source reads stylesheet text by path.
type Source interface {
	Read(path string) (string, error)
}

// Dir reads stylesheets relative to a directory.
type Dir string

func (d Dir) Read(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(string(d), filepath.FromSlash(path)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Cache holds parsed catalogs per stylesheet path for the life of the
// process. Each path is parsed at most once until it is invalidated.
type Cache struct {
	source Source
	group  singleflight.Group

	mu    sync.RWMutex
	bands map[string][]Band
	// gen counts invalidations per path. A load only stores its result if
	// no invalidation happened while it ran.
	gen map[string]uint64
}

// NewCache creates a cache that reads stylesheets from source.
func NewCache(source Source) *Cache {
	return &Cache{
		source: source,
		bands:  make(map[string][]Band),
		gen:    make(map[string]uint64),
	}
}

// Get returns the catalog for path, loading it on first use. The returned
// slice is a copy and may be modified by the caller.
func (c *Cache) Get(path string) ([]Band, error) {
	c.mu.RLock()
	bands, ok := c.bands[path]
	c.mu.RUnlock()
	if ok {
		return slices.Clone(bands), nil
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		c.mu.RLock()
		start := c.gen[path]
		c.mu.RUnlock()

		text, err := c.source.Read(path)
		if err != nil {
			// Any unreadable source counts as a missing catalog.
			return nil, fmt.Errorf("%w: %s: %w", ErrCatalogNotFound, path, err)
		}

		loaded, err := Load(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse breakpoints %s: %w", path, err)
		}

		c.mu.Lock()
		if c.gen[path] == start {
			c.bands[path] = loaded
		}
		c.mu.Unlock()

		slog.Debug("Loaded breakpoint catalog", "path", path, "bands", len(loaded))
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return slices.Clone(v.([]Band)), nil
}

// Invalidate drops the cached catalog for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bands, path)
	c.gen[path]++
	c.group.Forget(path)
}

// Watch invalidates the catalog cached under key whenever filename changes
// on disk. It blocks until ctx is cancelled.
func (c *Cache) Watch(ctx context.Context, key, filename string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen.
	filename = filepath.Clean(filename)
	if err := watcher.Add(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filename, err)
	}

	slog.Info("Watching breakpoints", "file", filename)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				c.Invalidate(key)
				slog.Info("Breakpoints changed, cache invalidated", "file", filename, "op", event.Op.String())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Breakpoint watcher error", "error", err)
		}
	}
}
