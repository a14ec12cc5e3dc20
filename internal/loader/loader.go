// Package loader downloads map style documents.
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/plat-style/internal/mapstyle"
)

// ErrFetch wraps every download or decode failure.
var ErrFetch = errors.New("style fetch failed")

const (
	// DefaultLimit is the number of documents fetched concurrently.
	DefaultLimit = 8
	// DefaultTTL is how long a decoded document stays cached.
	DefaultTTL = 10 * time.Minute
)

// Config tunes a Loader.
type Config struct {
	Limit int
	TTL   time.Duration
	// MaxCacheBytes caps the cache by raw document size; zero disables it.
	MaxCacheBytes int64
}

// DefaultConfig returns the settings used by the server.
func DefaultConfig() Config {
	return Config{Limit: DefaultLimit, TTL: DefaultTTL, MaxCacheBytes: 64 << 20}
}

// Loader fetches batches of style documents. A batch either succeeds as a
// whole or fails with the first error.
type Loader struct {
	fetcher Fetcher
	limit   int
	ttl     time.Duration
	cache   *ristretto.Cache
}

// New creates a loader on top of f.
func New(f Fetcher, cfg Config) (*Loader, error) {
	l := &Loader{fetcher: f, limit: cfg.Limit, ttl: cfg.TTL}
	if l.limit <= 0 {
		l.limit = DefaultLimit
	}
	if cfg.MaxCacheBytes > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1e4,
			MaxCost:     cfg.MaxCacheBytes,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("create document cache: %w", err)
		}
		l.cache = cache
	}
	return l, nil
}

// Close releases the cache.
func (l *Loader) Close() {
	if l.cache != nil {
		l.cache.Close()
	}
}

// Load fetches every request concurrently. On success the result holds one
// entry per request id with the document and its layer groups. Any failure
// cancels the rest and no partial result is returned.
func (l *Loader) Load(ctx context.Context, reqs []mapstyle.LoadRequest) (map[string]mapstyle.LoadedStyle, error) {
	docs := make([]*mapstyle.Document, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.limit)
	for i, req := range reqs {
		g.Go(func() error {
			doc, err := l.LoadOne(gctx, req.URL)
			if err != nil {
				return fmt.Errorf("load style %q: %w", req.ID, err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]mapstyle.LoadedStyle, len(reqs))
	for i, req := range reqs {
		out[req.ID] = mapstyle.LoadedStyle{Style: docs[i], LayerGroups: mapstyle.Classify(docs[i])}
	}
	return out, nil
}

// LoadOne fetches and decodes a single document, serving it from the cache
// when possible. Documents are never modified after decoding, so cached
// values are shared.
func (l *Loader) LoadOne(ctx context.Context, rawURL string) (*mapstyle.Document, error) {
	if l.cache != nil {
		if v, found := l.cache.Get(rawURL); found {
			if doc, ok := v.(*mapstyle.Document); ok {
				return doc, nil
			}
		}
	}

	data, err := l.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
	}
	doc, err := mapstyle.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
	}

	if l.cache != nil {
		l.cache.SetWithTTL(rawURL, doc, int64(len(data)), l.ttl)
		l.cache.Wait()
	}
	return doc, nil
}
