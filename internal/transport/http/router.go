package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-notifyd/internal/config"
	jwtinfra "github.com/go-notifyd/internal/infrastructure/jwt"
	"github.com/go-notifyd/internal/logging"
	"github.com/go-notifyd/internal/transport/http/handler"
	appmiddleware "github.com/go-notifyd/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(logging.Component("http")))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Passthrough
	readMw := appmiddleware.Passthrough
	notifyMw := appmiddleware.Passthrough
	if deps.Verifier != nil {
		authMw = appmiddleware.Auth(deps.Verifier)
		readMw = appmiddleware.RequireScope(jwtinfra.ScopeRead)
		notifyMw = appmiddleware.RequireScope(jwtinfra.ScopeNotify)
	}

	healthH := handler.NewHealthHandler(deps.Live)
	notifH := handler.NewNotificationHandler(deps.Service, logging.Component("rpc"))
	signalH := handler.NewSignalHandler(deps.Signals, logging.Component("signals"))

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Group(func(r chi.Router) {
				r.Use(readMw)

				r.Get("/capabilities", notifH.Capabilities)
				r.Get("/server-information", notifH.ServerInformation)
				r.Get("/notifications", notifH.List)
				r.Get("/notifications/{id}", notifH.Get)
				r.Get("/signals", signalH.Stream)

				if deps.Journal != nil {
					journalH := handler.NewJournalHandler(deps.Journal, logging.Component("journal"))
					r.Get("/journal/{app}", journalH.Recent)
				}
			})

			r.Group(func(r chi.Router) {
				r.Use(notifyMw)

				r.Post("/notifications", notifH.Notify)
				r.Delete("/notifications/{id}", notifH.Close)
				r.Post("/notifications/{id}/dismiss", notifH.Dismiss)
			})
		})
	})

	return r
}
