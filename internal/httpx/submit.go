package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hushd/hush/internal/app"
	"github.com/hushd/hush/internal/metrics"
)

// submitRequest is the wire form of POST /api/secrets.
type submitRequest struct {
	Text   string `json:"text"`
	Prompt string `json:"prompt,omitempty"`
	Answer string `json:"answer,omitempty"`
	// ExpireIn is a Go duration string, e.g. "1h". Empty means the service
	// default; "0s" creates a secret that is already expired.
	ExpireIn string `json:"expire_in,omitempty"`
}

// submitResponse acknowledges a stored secret.
type submitResponse struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleSubmit implements POST /api/secrets.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body := r.Body
	if h.MaxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.MaxBody)
	}
	defer body.Close()

	var req submitRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub := app.SubmitRequest{Text: req.Text, Prompt: req.Prompt, Answer: req.Answer}
	if req.ExpireIn != "" {
		d, err := time.ParseDuration(req.ExpireIn)
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid expire_in")
			return
		}
		sub.ExpireIn = &d
	}
	id, expires, err := h.Service.Submit(ctx, sub)
	if err != nil {
		mapServiceError(ctx, w, err)
		return
	}
	metrics.SecretsCreated.Inc()
	writeJSON(w, http.StatusCreated, submitResponse{ID: id.String(), ExpiresAt: expires})
}
