// Package httpx contains the HTTP delivery layer for the hush service. It
// maps requests onto the lifecycle service and the ingestion queue while
// enforcing body limits, security headers, and error translation. Handlers
// are split across files (submit.go, access.go, enqueue.go, health.go,
// errors.go).
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hushd/hush/internal/app"
	"github.com/hushd/hush/internal/domain"
	"github.com/hushd/hush/internal/metrics"
)

// Service abstracts the subset of app.Service used by the HTTP layer.
// It is satisfied by *app.Service in production and mocked in tests.
type Service interface {
	Submit(ctx context.Context, req app.SubmitRequest) (domain.SecretID, time.Time, error)
	Access(ctx context.Context, id, answer string) (app.AccessResult, error)
}

// Enqueuer is the producer side of the ingestion queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload []byte) error
}

// Handler wires HTTP endpoints to the application service.
// It is safe for concurrent use. Zero-value is not valid; construct via New.
type Handler struct {
	Service   Service
	Queue     Enqueuer                    // optional; nil disables the ingest endpoint
	Readiness func(context.Context) error // optional readiness probe
	MaxBody   int64                       // request body cap (0 disables the extra check)
}

// New returns a configured Handler.
func New(svc Service, maxBody int64, readiness func(context.Context) error) *Handler {
	return &Handler{Service: svc, MaxBody: maxBody, Readiness: readiness}
}

// Router constructs the chi router with all routes and middleware mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(CorrelationIDMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(secureHeaders)
	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/api/secrets", func(r chi.Router) {
		r.Post("/", h.handleSubmit)
		r.Get("/{id}", h.handleAccess)
	})
	if h.Queue != nil {
		r.Post("/api/ingest", h.handleEnqueue)
	}
	return r
}

// secureHeaders adds standard security and cache-control headers. Responses
// carry secret material, so nothing is cacheable.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON body with the given status code.
func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
