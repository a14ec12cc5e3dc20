package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxDocumentSize bounds a single style document download.
const MaxDocumentSize = 32 << 20

// ErrDocumentTooLarge is returned for bodies longer than the fetch limit.
var ErrDocumentTooLarge = errors.New("style document too large")

// Fetcher retrieves the raw bytes of a style document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, rawURL string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return f(ctx, rawURL)
}

// HTTPFetcher downloads style documents over http and https.
type HTTPFetcher struct {
	Client *http.Client
	// MaxSize overrides MaxDocumentSize when positive.
	MaxSize int64
}

// NewHTTPFetcher returns a fetcher with a bounded request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

// Fetch issues a GET and returns the body of a 2xx response.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	limit := f.MaxSize
	if limit <= 0 {
		limit = MaxDocumentSize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrDocumentTooLarge, limit)
	}
	return data, nil
}

// DirFetcher reads "file:" URLs relative to a local styles directory.
type DirFetcher struct {
	Dir string
}

// Fetch reads file:<name> from the directory. Paths escaping it are refused.
func (f *DirFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	name := u.Opaque
	if name == "" {
		name = u.Path
	}
	name = filepath.Clean(strings.TrimPrefix(name, "/"))
	if name == "." || !filepath.IsLocal(name) {
		return nil, fmt.Errorf("invalid style path %q", rawURL)
	}
	return os.ReadFile(filepath.Join(f.Dir, name))
}

// SchemeFetcher routes a URL to the fetcher registered for its scheme.
type SchemeFetcher map[string]Fetcher

// NewFetcher returns the default fetcher: http(s) downloads plus the local
// styles directory for file: URLs.
func NewFetcher(stylesDir string, timeout time.Duration) SchemeFetcher {
	h := NewHTTPFetcher(timeout)
	return SchemeFetcher{
		"http":  h,
		"https": h,
		"file":  &DirFetcher{Dir: stylesDir},
	}
}

// Fetch dispatches on the URL scheme.
func (m SchemeFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	f, ok := m[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	return f.Fetch(ctx, rawURL)
}
