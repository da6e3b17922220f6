// Package loader turns CSV sources into sorted, immutable datasets and
// memoizes the result by content so repeated loads skip parsing.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"salesdash/internal/cache"
	"salesdash/internal/core"
	"salesdash/internal/log"
)

// Stats reports memo effectiveness.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Loader parses sources and caches datasets keyed by content hash.
// It is safe for concurrent use; concurrent loads of identical bytes
// share a single parse.
type Loader struct {
	store      cache.Cache[*core.Dataset]
	group      singleflight.Group
	logger     *log.Logger
	structured *log.StructuredLogger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewStore returns the memo store for a configured size. Zero or less keeps
// every dataset for the life of the process.
func NewStore(size int) cache.Cache[*core.Dataset] {
	if size <= 0 {
		return cache.NewUnbounded[*core.Dataset]()
	}
	return cache.NewLRUCache[*core.Dataset](size, 0)
}

// New creates a loader backed by store. A nil store means an unbounded
// process-lifetime memo.
func New(store cache.Cache[*core.Dataset], logger *log.Logger) *Loader {
	if store == nil {
		store = NewStore(0)
	}
	if logger == nil {
		logger = log.Default(log.ComponentLoader)
	}
	logger = logger.WithComponent(log.ComponentLoader)

	if _, ok := store.(*cache.Unbounded[*core.Dataset]); ok {
		logger.Warn("Dataset memo is unbounded; every distinct upload stays in memory until restart")
	}

	return &Loader{
		store:      store,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
	}
}

// LoadBytes returns the dataset for data, parsing it only if this exact
// content has not been seen before. The returned Dataset carries source
// as its name even when served from the memo.
func (l *Loader) LoadBytes(ctx context.Context, data []byte, source string) (*core.Dataset, error) {
	ds, _, err := l.Load(ctx, data, source)
	return ds, err
}

// Load is LoadBytes that also reports whether the memo already held the
// content.
func (l *Loader) Load(ctx context.Context, data []byte, source string) (*core.Dataset, bool, error) {
	key := ContentHash(data)

	if ds, ok := l.store.Get(key); ok {
		l.hits.Add(1)
		l.logger.DebugContext(ctx, "Dataset memo hit", log.FieldDatasetHash, key[:12], log.FieldSource, source)
		return renamed(ds, source), true, nil
	}

	hit := false
	v, err, shared := l.group.Do(key, func() (any, error) {
		if ds, ok := l.store.Get(key); ok {
			l.hits.Add(1)
			hit = true
			return ds, nil
		}
		l.misses.Add(1)
		ds, err := Parse(data, source)
		if err != nil {
			return nil, err
		}
		l.store.Set(key, ds)
		return ds, nil
	})
	if err != nil {
		l.logger.WarnContext(ctx, "Dataset load failed",
			log.FieldSource, source,
			log.FieldBytes, len(data),
			log.FieldError, err)
		return nil, false, err
	}
	if shared {
		l.logger.DebugContext(ctx, "Dataset parse shared with concurrent load", log.FieldSource, source)
	}
	ds := v.(*core.Dataset)
	l.structured.LogDatasetLoaded(ctx, key, source, ds.Len(), hit || shared)
	return renamed(ds, source), hit || shared, nil
}

// LoadReader reads r fully and loads its content.
func (l *Loader) LoadReader(ctx context.Context, r io.Reader, source string) (*core.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &core.SourceError{Source: source, Err: err}
	}
	return l.LoadBytes(ctx, data, source)
}

// LoadFile reads the file at path and loads its content.
func (l *Loader) LoadFile(ctx context.Context, path string) (*core.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &core.SourceError{Source: path, Err: fmt.Errorf("file not found: %w", err)}
		}
		return nil, &core.SourceError{Source: path, Err: err}
	}
	return l.LoadBytes(ctx, data, path)
}

// Stats returns memo counters.
func (l *Loader) Stats() Stats {
	return Stats{
		Hits:    l.hits.Load(),
		Misses:  l.misses.Load(),
		Entries: l.store.Size(),
	}
}

func renamed(ds *core.Dataset, source string) *core.Dataset {
	if ds.Source == source {
		return ds
	}
	out := *ds
	out.Source = source
	return &out
}
