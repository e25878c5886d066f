// Package agent implements the client-resident background agent: it
// intercepts the page's outgoing requests with per-resource caching
// policy, and receives push messages while no page is open.
//
// The agent shares no memory with pages. Coordination happens through
// message events (push received, notification clicked) and the cache
// store.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/community-notify/internal/cache"
)

// State is the agent lifecycle phase.
type State int

const (
	StateInstalling State = iota
	StateWaiting
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Deps wires an Agent.
type Deps struct {
	// Origin is the content site the agent fronts; only requests to this
	// origin are ever intercepted.
	Origin string
	Store  cache.Store
	// Generation names the caches this deploy owns. Changing it and
	// re-activating is the sole eviction mechanism.
	Generation string
	// Manifest lists origin paths precached on install, best effort.
	Manifest []string
	Client   *http.Client
	Notifier Notifier
	Windows  Windows
}

type Agent struct {
	origin     *url.URL
	store      cache.Store
	generation string
	manifest   []string
	client     *http.Client
	notifier   Notifier
	windows    Windows

	mu    sync.Mutex
	state State

	// revalidations tracks in-flight background refreshes so Close can
	// drain them.
	revalidations sync.WaitGroup
}

func New(deps Deps) (*Agent, error) {
	origin, err := url.Parse(deps.Origin)
	if err != nil || origin.Host == "" {
		return nil, fmt.Errorf("agent origin %q: invalid URL", deps.Origin)
	}
	client := deps.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Agent{
		origin:     origin,
		store:      deps.Store,
		generation: deps.Generation,
		manifest:   deps.Manifest,
		client:     client,
		notifier:   deps.Notifier,
		windows:    deps.Windows,
		state:      StateInstalling,
	}, nil
}

func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Install precaches the manifest and immediately requests fast
// activation. Every manifest fetch is independent: a failure on one
// never aborts installation of the others, and installation completes
// even if all of them failed.
func (a *Agent) Install(ctx context.Context) error {
	a.setState(StateInstalling)

	var failed int
	for _, path := range a.manifest {
		if err := a.precache(ctx, path); err != nil {
			failed++
			slog.Warn("precache failed", "path", path, "err", err)
		}
	}
	slog.Info("agent installed", "generation", a.generation,
		"manifest", len(a.manifest), "failed", failed)

	// Skip the waiting phase: this agent takes over as soon as it
	// activates.
	a.setState(StateWaiting)
	return nil
}

func (a *Agent) precache(ctx context.Context, path string) error {
	target := a.origin.JoinPath(path).String()
	resp, err := a.fetchBypassingCaches(ctx, target)
	if err != nil {
		return err
	}
	if resp.Status != http.StatusOK {
		return fmt.Errorf("fetch %s: HTTP %d", target, resp.Status)
	}
	name := cache.StaticName(a.generation)
	if classify(a.origin, mustParse(target)) == classDocument {
		name = cache.PageName(a.generation)
	}
	c, err := a.store.Open(ctx, name)
	if err != nil {
		return err
	}
	return c.Put(ctx, resp.toEntry(target))
}

// Activate sweeps every cache not owned by the current generation, then
// claims control of open pages. There is no per-entry TTL; this sweep is
// the only eviction.
func (a *Agent) Activate(ctx context.Context) error {
	names, err := a.store.Names(ctx)
	if err != nil {
		return fmt.Errorf("enumerate caches: %w", err)
	}
	for _, name := range names {
		if cache.OwnedBy(name, a.generation) {
			continue
		}
		if err := a.store.Drop(ctx, name); err != nil {
			return fmt.Errorf("drop cache %s: %w", name, err)
		}
		slog.Info("dropped stale cache", "cache", name)
	}
	a.setState(StateActive)
	slog.Info("agent active", "generation", a.generation)
	return nil
}

// Run performs the full install/activate lifecycle.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.Install(ctx); err != nil {
		return err
	}
	return a.Activate(ctx)
}

// Close waits for in-flight background revalidations to settle.
func (a *Agent) Close() {
	a.revalidations.Wait()
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
