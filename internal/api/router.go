package api

import (
	"net/http"
	"time"

	"ctfbot/internal/api/handler"
	"ctfbot/internal/api/middleware"
	"ctfbot/internal/app/service"
	"ctfbot/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	eventService *service.EventService,
	onboardingService *service.OnboardingService,
	submissionService *service.SubmissionService,
	scoreboardService *service.ScoreboardService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		// Interactions webhook: only the gateway connector may call it.
		interactionHandler := handler.NewInteractionHandler(
			eventService, onboardingService, submissionService, scoreboardService)
		v1.Route("/interactions", func(ir chi.Router) {
			ir.Use(middleware.Authenticator)
			interactionHandler.RegisterRoutes(ir)
		})

		// Read-only event views (public)
		eventHandler := handler.NewEventHandler(eventService, scoreboardService)
		v1.Route("/events", eventHandler.RegisterRoutes)
	})

	return r
}
