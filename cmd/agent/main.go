// The agent binary fronts the content site on a local port: it applies
// the offline caching policy to page traffic, receives push messages on
// its intake endpoint, and manages the push subscription lifecycle
// against the notification API.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/community-notify/internal/agent"
	"github.com/community-notify/internal/cache"
	"github.com/community-notify/internal/config"
	s3infra "github.com/community-notify/internal/infrastructure/s3"
	"github.com/community-notify/internal/lifecycle"
	"github.com/community-notify/pkg/client"
)

// logNotifier prints notifications; headless deployments swap in a
// desktop notifier here.
type logNotifier struct{}

func (logNotifier) Show(_ context.Context, n *agent.Notification) error {
	slog.Info("notification", "title", n.Title, "body", n.Body,
		"tag", n.Tag, "target_url", n.TargetURL)
	return nil
}

// noWindows reports no open pages, so every notification click opens a
// fresh one.
type noWindows struct{}

func (noWindows) List(context.Context) ([]agent.Window, error) { return nil, nil }

func (noWindows) Open(_ context.Context, url string) (agent.Window, error) {
	slog.Info("opening window", "url", url)
	return openedWindow{url: url}, nil
}

type openedWindow struct{ url string }

func (w openedWindow) URL() string               { return w.url }
func (openedWindow) Focus(context.Context) error { return nil }

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// A cache bucket is optional in local development; without one the
	// cache lives in process memory only.
	var store cache.Store = cache.NewMemoryStore()
	if cfg.CacheBucket != "" && cfg.AWSAccessKeyID != "" {
		store = s3infra.NewCacheStore(s3infra.NewClient(cfg), cfg.CacheBucket)
	} else {
		log.Println("No cache bucket configured, using in-memory cache")
	}

	ag, err := agent.New(agent.Deps{
		Origin:     cfg.OriginURL,
		Store:      store,
		Generation: cfg.CacheGeneration,
		Manifest:   cfg.PrecacheManifest,
		Notifier:   logNotifier{},
		Windows:    noWindows{},
	})
	if err != nil {
		log.Fatalf("agent init: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ag.Run(ctx); err != nil {
		log.Fatalf("agent lifecycle: %v", err)
	}

	// Subscription lifecycle against the notification API.
	api := client.New(cfg.APIBaseURL)
	controller := lifecycle.NewController(lifecycle.Deps{
		Platform:  lifecycle.NewLocalPlatform(cfg.AgentPublicURL+"/push", nil),
		Registry:  api,
		State:     lifecycle.NewStateStore(cfg.AgentStateDir),
		Device:    "desktop",
		UserAgent: "community-notify-agent/1.0",
	})
	go func() {
		if err := controller.AutoPrompt(ctx); err != nil {
			slog.Warn("subscription prompt failed", "err", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /push", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err := ag.HandlePush(r.Context(), body); err != nil {
			slog.Warn("push handling failed", "err", err)
			http.Error(w, "push failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	mux.Handle("/", ag)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AgentPort),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Agent proxying %s on :%s (generation=%s)",
			cfg.OriginURL, cfg.AgentPort, cfg.CacheGeneration)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("agent server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down agent...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	ag.Close()
	log.Println("Agent stopped")
}
