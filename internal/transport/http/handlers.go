// Copyright 2026 The OrgDir Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/orgdir/orgdir/internal/access"
	"github.com/orgdir/orgdir/internal/directory"
	"github.com/orgdir/orgdir/internal/identity"
	"github.com/orgdir/orgdir/internal/token"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies.
// Audit logging happens inside the services, where the semantic outcome
// of an operation is known; the transport layer only maps errors.
type Handler struct {
	directoryService *directory.Service
	identityService  *identity.Service
	gate             *access.Gate
	issuer           *token.Issuer
}

// NewHandler creates a new HTTP handler
func NewHandler(
	directoryService *directory.Service,
	identityService *identity.Service,
	gate *access.Gate,
	issuer *token.Issuer,
) *Handler {
	return &Handler{
		directoryService: directoryService,
		identityService:  identityService,
		gate:             gate,
		issuer:           issuer,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/org", h.CreateOrganization)
		r.Get("/org", h.GetOrganization)
		r.Post("/admin/login", h.Login)

		// Token-protected endpoints. Each handler re-resolves the
		// organization so a token outliving its organization fails
		// with Not Found rather than acting on stale claims.
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)
			r.Put("/org", h.UpdateOrganization)
			r.Delete("/org", h.DeleteOrganization)
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "orgdir",
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
