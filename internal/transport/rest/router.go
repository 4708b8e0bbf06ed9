package rest

import (
	"net/http"
	"time"

	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/cityagenda/event-platform/internal/security"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Cache     domain.CacheRepository
	Handler   *Handler
	Verifier  security.AccessTokenVerifier
	JWTIssuer string

	RateLimitEnabled bool
	RateLimit        int
	RateLimitWindow  time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Cache == nil {
		panic("rest.NewRouter: nil cache")
	}
	if d.Handler == nil {
		panic("rest.NewRouter: nil handler")
	}
	if d.Verifier == nil {
		panic("rest.NewRouter: nil verifier")
	}

	r := chi.NewRouter()

	// Request ID + structured access log
	r.Use(RequestID)
	r.Use(HTTPLogger)

	// Panic recovery
	r.Use(middleware.Recoverer)

	// Cross-cutting
	if d.RateLimitEnabled {
		r.Use(RateLimitMiddleware(d.Cache, d.RateLimit, d.RateLimitWindow))
	}
	r.Use(SecurityHeaders)

	r.Route("/api/v1", func(r chi.Router) {
		// Public discovery surface, no auth. Every hit feeds the view stats.
		r.Get("/events", d.Handler.ListPublicEvents)
		r.Get("/events/{eventID}", d.Handler.GetPublicEvent)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Verifier, AuthOptions{ExpectedIssuer: d.JWTIssuer}))

			// owner lifecycle
			r.Post("/events", d.Handler.SubmitEvent)
			r.Get("/me/events", d.Handler.ListMyEvents)
			r.Get("/me/events/{eventID}", d.Handler.GetMyEvent)
			r.Patch("/me/events/{eventID}", d.Handler.EditMyEvent)

			// organizer view over participation requests
			r.Get("/me/events/{eventID}/requests", d.Handler.ListEventRequests)
			r.Patch("/me/events/{eventID}/requests", d.Handler.ChangeRequestStatuses)

			// participation requests
			r.Post("/requests", d.Handler.CreateRequest)
			r.Patch("/requests/{requestID}/cancel", d.Handler.CancelRequest)
			r.Get("/me/requests", d.Handler.ListMyRequests)

			// moderation
			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/admin/events", d.Handler.ListEventsAdmin)
				r.Patch("/admin/events/{eventID}", d.Handler.EditEventAdmin)
			})
		})
	})

	return r
}
