package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hushd/hush/internal/metrics"
)

// AnswerHeader carries a challenge answer when the caller prefers not to put
// it in the query string.
const AnswerHeader = "X-Hush-Answer"

// accessResponse is the wire form of a reveal or a challenge prompt.
type accessResponse struct {
	Text              string `json:"text,omitempty"`
	Prompt            string `json:"prompt,omitempty"`
	ChallengeRequired bool   `json:"challenge_required,omitempty"`
}

// handleAccess implements GET /api/secrets/{id}. The challenge answer is
// taken from the "answer" query parameter or the X-Hush-Answer header.
func (h *Handler) handleAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	answer := r.URL.Query().Get("answer")
	if answer == "" {
		answer = r.Header.Get(AnswerHeader)
	}
	res, err := h.Service.Access(ctx, id, answer)
	if err != nil {
		mapServiceError(ctx, w, err)
		return
	}
	if res.ChallengeRequired {
		writeJSON(w, http.StatusOK, accessResponse{Prompt: res.Prompt, ChallengeRequired: true})
		return
	}
	metrics.SecretsRevealed.Inc()
	writeJSON(w, http.StatusOK, accessResponse{Text: res.Text})
}
