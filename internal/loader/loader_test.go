package loader_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-style/internal/loader"
	"github.com/joeblew999/plat-style/internal/mapstyle"
)

const lightStyle = `{"id": "light", "name": "Light", "layers": [{"id": "water"}, {"id": "road-street"}]}`

const darkStyle = `{"id": "dark", "name": "Dark", "layers": [{"id": "background", "type": "background"}]}`

func newStyleServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		switch r.URL.Path {
		case "/light.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(lightStyle))
		case "/dark.json":
			_, _ = w.Write([]byte(darkStyle))
		case "/broken.json":
			_, _ = w.Write([]byte(`{"layers": [`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newLoader(t *testing.T, f loader.Fetcher, cfg loader.Config) *loader.Loader {
	t.Helper()
	l, err := loader.New(f, cfg)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

func TestLoad(t *testing.T) {
	t.Parallel()

	srv := newStyleServer(t, nil)
	l := newLoader(t, loader.NewHTTPFetcher(5*time.Second), loader.DefaultConfig())

	got, err := l.Load(context.Background(), []mapstyle.LoadRequest{
		{ID: "light", URL: srv.URL + "/light.json"},
		{ID: "dark", URL: srv.URL + "/dark.json"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Light", got["light"].Style.Name())
	assert.ElementsMatch(t, []string{mapstyle.GroupWater, mapstyle.GroupRoad}, got["light"].LayerGroups)
	assert.Equal(t, []string{mapstyle.GroupBackground}, got["dark"].LayerGroups)
}

func TestLoadIsAllOrNothing(t *testing.T) {
	t.Parallel()

	srv := newStyleServer(t, nil)
	l := newLoader(t, loader.NewHTTPFetcher(5*time.Second), loader.DefaultConfig())

	tests := []struct {
		name string
		bad  string
	}{
		{name: "not found", bad: "/missing.json"},
		{name: "invalid json", bad: "/broken.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := l.Load(context.Background(), []mapstyle.LoadRequest{
				{ID: "light", URL: srv.URL + "/light.json"},
				{ID: "bad", URL: srv.URL + tt.bad},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, loader.ErrFetch)
			assert.Contains(t, err.Error(), `"bad"`)
			assert.Nil(t, got)
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	t.Parallel()

	l := newLoader(t, loader.FetcherFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("unexpected fetch")
	}), loader.Config{})

	got, err := l.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadOneUsesCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := newStyleServer(t, &hits)
	l := newLoader(t, loader.NewHTTPFetcher(5*time.Second), loader.DefaultConfig())

	first, err := l.LoadOne(context.Background(), srv.URL+"/light.json")
	require.NoError(t, err)
	second, err := l.LoadOne(context.Background(), srv.URL+"/light.json")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.LessOrEqual(t, hits.Load(), int32(2))
}

func TestLoadOneWithoutCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := newStyleServer(t, &hits)
	l := newLoader(t, loader.NewHTTPFetcher(5*time.Second), loader.Config{})

	for range 3 {
		_, err := l.LoadOne(context.Background(), srv.URL+"/dark.json")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	srv := newStyleServer(t, nil)
	l := newLoader(t, loader.NewHTTPFetcher(5*time.Second), loader.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, []mapstyle.LoadRequest{{ID: "light", URL: srv.URL + "/light.json"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSchemeFetcher(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local.json"), []byte(darkStyle), 0o644))
	srv := newStyleServer(t, nil)

	f := loader.NewFetcher(dir, 5*time.Second)

	data, err := f.Fetch(context.Background(), "file:local.json")
	require.NoError(t, err)
	assert.JSONEq(t, darkStyle, string(data))

	data, err = f.Fetch(context.Background(), srv.URL+"/light.json")
	require.NoError(t, err)
	assert.JSONEq(t, lightStyle, string(data))

	_, err = f.Fetch(context.Background(), "ftp://example.com/style.json")
	assert.ErrorContains(t, err, "unsupported url scheme")
}

func TestDirFetcherRejectsEscapes(t *testing.T) {
	t.Parallel()

	f := &loader.DirFetcher{Dir: t.TempDir()}
	for _, u := range []string{"file:../secret.json", "file:///../../etc/passwd", "file:"} {
		_, err := f.Fetch(context.Background(), u)
		assert.Error(t, err, u)
	}
}

func TestHTTPFetcherRejectsOversizedDocument(t *testing.T) {
	t.Parallel()

	srv := newStyleServer(t, nil)
	size := int64(len(lightStyle))

	f := &loader.HTTPFetcher{MaxSize: size}
	data, err := f.Fetch(context.Background(), srv.URL+"/light.json")
	require.NoError(t, err, "a body of exactly the limit fits")
	assert.JSONEq(t, lightStyle, string(data))

	f.MaxSize = size - 1
	data, err = f.Fetch(context.Background(), srv.URL+"/light.json")
	require.ErrorIs(t, err, loader.ErrDocumentTooLarge)
	assert.Nil(t, data)
}
