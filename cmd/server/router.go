package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taskloop/taskloop-api/internal/api"
	apiMiddleware "github.com/taskloop/taskloop-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userService)
	requestHandler := api.NewRequestHandler(app.requestService)
	ratingHandler := api.NewRatingHandler(app.ratingService)
	notificationHandler := api.NewNotificationHandler(app.notificationService)
	paymentHandler := api.NewPaymentHandler(app.publisher)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/webhooks/payments", paymentHandler.Webhook)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/users/me", authHandler.Me)
			r.Get("/users/{id}/rating", ratingHandler.Aggregate)
			r.Get("/users/{id}/ratings", ratingHandler.ListReceived)

			r.Post("/requests", requestHandler.Create)
			r.Get("/requests", requestHandler.ListOpen)
			r.Get("/requests/mine", requestHandler.ListMine)
			r.Get("/requests/{id}", requestHandler.Get)
			r.Post("/requests/{id}/claim", requestHandler.Claim)
			r.Post("/requests/{id}/cancel", requestHandler.Cancel)

			r.Get("/assignments", requestHandler.ListAssignments)
			r.Post("/assignments/{id}/accept", requestHandler.Accept)
			r.Post("/assignments/{id}/start", requestHandler.Start)
			r.Post("/assignments/{id}/complete", requestHandler.Complete)

			r.Post("/ratings", ratingHandler.Submit)

			r.Get("/notifications", notificationHandler.List)
			r.Post("/notifications/{id}/read", notificationHandler.MarkRead)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
