package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/tmnkosi/bankgate/internal/auth"
	"github.com/tmnkosi/bankgate/internal/handlers"
	"github.com/tmnkosi/bankgate/internal/middleware"
)

// RegisterRoutes registers all application routes. The two auth endpoints
// each get their own throttle guard with independent counters; a coarse
// per-IP limit sits in front of both.
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	paymentHandler *handlers.PaymentHandler,
	tokenManager *auth.TokenManager,
	loginGuard *middleware.ThrottleGuard,
	registerGuard *middleware.ThrottleGuard,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes
	router.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimitByIP(rateLimitConfig), loginGuard.Protect).
			Post("/login", authHandler.Login)
		r.With(middleware.RateLimitByIP(rateLimitConfig), registerGuard.Protect).
			Post("/register", authHandler.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokenManager))

			r.Get("/profile", accountHandler.Profile)
			r.Post("/payments", paymentHandler.Submit)
			r.Get("/payments", paymentHandler.List)
		})
	})
}
