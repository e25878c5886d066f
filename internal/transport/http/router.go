package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/community-notify/internal/application/broadcast"
	"github.com/community-notify/internal/application/registry"
	"github.com/community-notify/internal/config"
	jwtinfra "github.com/community-notify/internal/infrastructure/jwt"
	"github.com/community-notify/internal/transport/http/handler"
	appmiddleware "github.com/community-notify/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	SubscriptionRepo SubscriptionRepository
	// Sender is nil when the VAPID key pair is not configured; the
	// broadcast endpoint then reports the misconfiguration instead of
	// the server failing startup.
	Sender PushSender
	// JWTProvider is nil when no operator key pair is configured; the
	// operator routes are simply not mounted.
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Webhook-Secret"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to the public
	// subscription endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	registrySvc := registry.NewService(deps.SubscriptionRepo)
	var broadcastSvc broadcast.Service
	if deps.Sender != nil {
		broadcastSvc = broadcast.NewService(broadcast.ServiceDeps{
			Repo:          deps.SubscriptionRepo,
			Sender:        deps.Sender,
			WebhookSecret: cfg.WebhookSecret,
			Concurrency:   cfg.FanoutConcurrency,
			PageSize:      int32(cfg.RegistryPageSize),
		})
	}

	healthH := handler.NewHealthHandler()
	keysH := handler.NewKeysHandler(cfg.VAPIDPublicKey)
	subH := handler.NewSubscriptionHandler(registrySvc, int32(cfg.RegistryPageSize))
	broadcastH := handler.NewBroadcastHandler(broadcastSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/vapid-public-key", keysH.PublicKey)
		r.With(sensitiveRL.Limit).Post("/subscriptions", subH.Register)
		r.With(sensitiveRL.Limit).Delete("/subscriptions", subH.Unregister)

		// Authenticated by shared secret inside the handler, not by JWT:
		// the caller is the content backend, not a person.
		r.Post("/broadcasts", broadcastH.Create)

		// ── Operator routes ──────────────────────────────────────────────────
		if deps.JWTProvider != nil {
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.Auth(deps.JWTProvider))

				r.Get("/subscriptions", subH.List)
			})
		}
	})

	return r
}
