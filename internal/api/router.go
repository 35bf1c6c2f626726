/**
 * @description
 * This file sets up the HTTP router for the transfer-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for chi.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the router-level settings.
type RouterConfig struct {
	// AllowedOrigins for CORS; "*" permits any origin.
	AllowedOrigins []string
	// JWTSecret enables bearer-token authentication on the transfer routes
	// when non-empty.
	JWTSecret string
}

// TransferRoutes creates and returns a new router for the transfer service.
func TransferRoutes(h *TransferHandlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication when a secret is configured.
	r.Group(func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(BearerAuthMiddleware(cfg.JWTSecret))
		}

		r.Post("/transfers", h.CreateTransferHandler)
		r.Get("/transfers/{reference}", h.GetTransferHandler)
		r.Get("/users/{userId}/transactions", h.ListUserTransactionsHandler)
	})

	return r
}
