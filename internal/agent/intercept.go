package agent

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/community-notify/internal/cache"
	"github.com/community-notify/internal/domain"
)

// Response is what the agent answers an intercepted request with.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
	// FromCache reports that the body was served from the cache store
	// rather than the network.
	FromCache bool
}

func (r *Response) toEntry(key string) *domain.CacheEntry {
	return &domain.CacheEntry{
		Key:         key,
		Body:        r.Body,
		ContentType: r.ContentType,
		Status:      r.Status,
		CachedAt:    time.Now().UTC(),
	}
}

func fromEntry(e *domain.CacheEntry) *Response {
	return &Response{
		Status:      e.Status,
		ContentType: e.ContentType,
		Body:        e.Body,
		FromCache:   true,
	}
}

type requestClass int

const (
	classDocument requestClass = iota
	classAsset
	classCrossOrigin
)

// classify partitions a GET by resource kind. Extensionless paths are
// documents (navigations); anything with a file extension is a static
// asset. Requests to any other host are out of scope.
func classify(origin, u *url.URL) requestClass {
	if u.Host != "" && u.Host != origin.Host {
		return classCrossOrigin
	}
	if path.Ext(u.Path) == "" {
		return classDocument
	}
	return classAsset
}

// Fetch resolves one intercepted GET according to the policy for its
// resource class:
//
//   - documents: network-only, bypassing all intermediate caches, so a
//     page is never served stale; offline synthesizes a 503.
//   - same-origin assets: stale-while-revalidate against the static
//     cache.
//   - cross-origin: passed through untouched.
func (a *Agent) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch classify(a.origin, u) {
	case classCrossOrigin:
		return a.passthrough(ctx, rawURL)
	case classDocument:
		return a.fetchDocument(ctx, rawURL)
	default:
		return a.fetchAsset(ctx, rawURL)
	}
}

func (a *Agent) fetchDocument(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := a.fetchBypassingCaches(ctx, rawURL)
	if err != nil {
		return unavailable(), nil
	}
	return resp, nil
}

// fetchAsset serves a cached copy synchronously when one exists and
// refreshes it in the background. Only a fresh 200 from the origin ever
// replaces a cached entry, so a failed or partial revalidation can not
// poison the cache.
func (a *Agent) fetchAsset(ctx context.Context, rawURL string) (*Response, error) {
	c, err := a.store.Open(ctx, a.staticCache())
	if err != nil {
		return a.assetFromNetwork(ctx, rawURL, nil)
	}

	entry, err := c.Match(ctx, rawURL)
	if err == nil {
		a.revalidations.Add(1)
		go func() {
			defer a.revalidations.Done()
			a.revalidate(rawURL)
		}()
		return fromEntry(entry), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return a.assetFromNetwork(ctx, rawURL, nil)
	}
	return a.assetFromNetwork(ctx, rawURL, c)
}

func (a *Agent) assetFromNetwork(ctx context.Context, rawURL string, c cache.Cache) (*Response, error) {
	resp, err := a.fetch(ctx, rawURL)
	if err != nil {
		return unavailable(), nil
	}
	if c != nil && resp.Status == http.StatusOK {
		_ = c.Put(ctx, resp.toEntry(rawURL))
	}
	return resp, nil
}

// revalidate runs detached from the intercepted request; the page that
// triggered it may already be gone.
func (a *Agent) revalidate(rawURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := a.fetch(ctx, rawURL)
	if err != nil || resp.Status != http.StatusOK {
		return
	}
	c, err := a.store.Open(ctx, a.staticCache())
	if err != nil {
		return
	}
	_ = c.Put(ctx, resp.toEntry(rawURL))
}

func (a *Agent) staticCache() string {
	return cache.StaticName(a.generation)
}

func (a *Agent) passthrough(ctx context.Context, rawURL string) (*Response, error) {
	return a.fetch(ctx, rawURL)
}

func (a *Agent) fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return a.do(req)
}

// fetchBypassingCaches forces revalidation through every intermediate
// HTTP cache between the agent and the origin.
func (a *Agent) fetchBypassingCaches(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	return a.do(req)
}

func (a *Agent) do(req *http.Request) (*Response, error) {
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, err
	}
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func unavailable() *Response {
	return &Response{
		Status:      http.StatusServiceUnavailable,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte("offline: the origin could not be reached"),
	}
}

// ServeHTTP exposes the interception policy as a local proxy in front
// of the origin. Non-GET traffic is forwarded untouched.
func (a *Agent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.forward(w, r)
		return
	}
	target := a.origin.ResolveReference(&url.URL{Path: r.URL.Path, RawQuery: r.URL.RawQuery})
	resp, err := a.Fetch(r.Context(), target.String())
	if err != nil {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	if resp.FromCache {
		w.Header().Set("X-Served-From", "cache")
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func (a *Agent) forward(w http.ResponseWriter, r *http.Request) {
	target := a.origin.ResolveReference(&url.URL{Path: r.URL.Path, RawQuery: r.URL.RawQuery})
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	req.Header = r.Header.Clone()
	resp, err := a.client.Do(req)
	if err != nil {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
