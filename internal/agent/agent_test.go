package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/community-notify/internal/cache"
)

func newTestAgent(t *testing.T, origin string, gen string, manifest []string) (*Agent, cache.Store) {
	t.Helper()
	store := cache.NewMemoryStore()
	a, err := New(Deps{
		Origin:     origin,
		Store:      store,
		Generation: gen,
		Manifest:   manifest,
	})
	require.NoError(t, err)
	return a, store
}

func TestInstall_PrecachesManifestBestEffort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>home</html>"))
		case "/css/site.css":
			w.Header().Set("Content-Type", "text/css")
			_, _ = w.Write([]byte("body{}"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a, store := newTestAgent(t, srv.URL, "v1", []string{"/", "/css/site.css", "/img/missing.png"})
	ctx := context.Background()

	require.NoError(t, a.Install(ctx))
	assert.Equal(t, StateWaiting, a.State())

	pages, err := store.Open(ctx, cache.PageName("v1"))
	require.NoError(t, err)
	entry, err := pages.Match(ctx, srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>home</html>"), entry.Body)

	static, err := store.Open(ctx, cache.StaticName("v1"))
	require.NoError(t, err)
	_, err = static.Match(ctx, srv.URL+"/css/site.css")
	require.NoError(t, err)

	// The 404'd manifest URL failed in isolation and was not cached.
	_, err = static.Match(ctx, srv.URL+"/img/missing.png")
	assert.Error(t, err)
}

func TestActivate_SweepsForeignGenerations(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	a, store := newTestAgent(t, srv.URL, "v2", nil)
	ctx := context.Background()

	for _, name := range []string{
		cache.StaticName("v1"), cache.PageName("v1"), cache.StaticName("v2"),
	} {
		_, err := store.Open(ctx, name)
		require.NoError(t, err)
	}

	require.NoError(t, a.Activate(ctx))
	assert.Equal(t, StateActive, a.State())

	names, err := store.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{cache.StaticName("v2")}, names)
}

func TestFetch_DocumentsAreNeverServedFromCache(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		_, _ = w.Write([]byte("fresh"))
	}))

	a, _ := newTestAgent(t, srv.URL, "v1", nil)
	ctx := context.Background()

	resp, err := a.Fetch(ctx, srv.URL+"/news/some-article")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.False(t, resp.FromCache)
	assert.Equal(t, int64(1), hits.Load())

	// Offline: a document request synthesizes an unavailable response
	// instead of falling back to any cached copy.
	srv.Close()
	resp, err = a.Fetch(ctx, srv.URL+"/news/some-article")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.False(t, resp.FromCache)
}

func TestFetch_AssetServedStaleWhileRevalidating(t *testing.T) {
	var version atomic.Value
	version.Store("v1")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(version.Load().(string)))
	}))
	defer srv.Close()

	a, store := newTestAgent(t, srv.URL, "v1", nil)
	ctx := context.Background()
	assetURL := srv.URL + "/js/site.js"

	// First request: cache miss, filled from the network.
	resp, err := a.Fetch(ctx, assetURL)
	require.NoError(t, err)
	assert.False(t, resp.FromCache)
	assert.Equal(t, []byte("v1"), resp.Body)

	// Second request after the origin changed: the stale copy is
	// returned synchronously while the refresh runs in the background.
	version.Store("v2")
	resp, err = a.Fetch(ctx, assetURL)
	require.NoError(t, err)
	assert.True(t, resp.FromCache)
	assert.Equal(t, []byte("v1"), resp.Body)

	a.Close()
	static, err := store.Open(ctx, cache.StaticName("v1"))
	require.NoError(t, err)
	entry, err := static.Match(ctx, assetURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), entry.Body)
}

func TestFetch_FailedRevalidationKeepsCachedCopy(t *testing.T) {
	var broken atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("good"))
	}))
	defer srv.Close()

	a, store := newTestAgent(t, srv.URL, "v1", nil)
	ctx := context.Background()
	assetURL := srv.URL + "/css/site.css"

	_, err := a.Fetch(ctx, assetURL)
	require.NoError(t, err)

	broken.Store(true)
	resp, err := a.Fetch(ctx, assetURL)
	require.NoError(t, err)
	assert.True(t, resp.FromCache)
	assert.Equal(t, []byte("good"), resp.Body)

	// A non-200 refresh must never replace the cached entry.
	a.Close()
	static, err := store.Open(ctx, cache.StaticName("v1"))
	require.NoError(t, err)
	entry, err := static.Match(ctx, assetURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("good"), entry.Body)
}

func TestFetch_AssetMissEverywhereIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	a, _ := newTestAgent(t, srv.URL, "v1", nil)

	resp, err := a.Fetch(context.Background(), srv.URL+"/img/logo.png")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
}

func TestFetch_CrossOriginPassesThroughUncached(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("third-party"))
	}))
	defer other.Close()
	origin := httptest.NewServer(http.NotFoundHandler())
	defer origin.Close()

	a, store := newTestAgent(t, origin.URL, "v1", nil)
	ctx := context.Background()

	resp, err := a.Fetch(ctx, other.URL+"/widget.js")
	require.NoError(t, err)
	assert.Equal(t, []byte("third-party"), resp.Body)
	assert.False(t, resp.FromCache)

	static, err := store.Open(ctx, cache.StaticName("v1"))
	require.NoError(t, err)
	_, err = static.Match(ctx, other.URL+"/widget.js")
	assert.Error(t, err)
}
