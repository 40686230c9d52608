package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/hushd/hush/internal/ingest"
)

// handleEnqueue implements POST /api/ingest: the producer-facing endpoint
// that defers creation onto the ingestion queue instead of the synchronous
// path. The body is an ingest.Request; it is round-tripped through the typed
// form so unknown fields are shed before queueing.
func (h *Handler) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body := r.Body
	if h.MaxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.MaxBody)
	}
	defer body.Close()

	var req ingest.Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	payload, err := json.Marshal(req)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "internal")
		return
	}
	if err := h.Queue.Enqueue(ctx, payload); err != nil {
		writeError(ctx, w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}
	writeJSON(w, http.StatusAccepted, struct {
		Status string `json:"status"`
	}{Status: "queued"})
}
