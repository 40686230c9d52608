package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hushd/hush/internal/app"
	"github.com/hushd/hush/internal/metrics"
)

// writeError writes a JSON error body with the given status code.
func writeError(ctx context.Context, w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg})
	if cid, ok := GetCorrelationID(ctx); ok {
		slog.Debug("wrote error response", "cid", cid, "status", code, "msg", msg)
	}
}

// mapServiceError maps the service's fixed error vocabulary to HTTP
// responses. This is the only knowledge of status codes the domain needs;
// backend errors never reach the client.
func mapServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	cid, _ := GetCorrelationID(ctx)
	switch {
	case errors.Is(err, app.ErrValidationFailed):
		slog.Warn("service error", "cid", cid, "code", "validation_failed")
		writeError(ctx, w, http.StatusBadRequest, "validation failed")
	case errors.Is(err, app.ErrNotFound):
		slog.Info("service error", "cid", cid, "code", "not_found")
		writeError(ctx, w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrChallengeFailed):
		metrics.ChallengeFailures.Inc()
		slog.Info("service error", "cid", cid, "code", "challenge_failed")
		writeError(ctx, w, http.StatusForbidden, "challenge failed")
	case errors.Is(err, app.ErrStorageFailure):
		slog.Error("service error", "cid", cid, "code", "storage_failure")
		writeError(ctx, w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		// Internal / unexpected: do not echo the raw error to the client.
		slog.Error("unhandled service error", "cid", cid, "code", "unhandled")
		writeError(ctx, w, http.StatusInternalServerError, "internal")
	}
}
