package handle

import (
	"encoding/json"
	"net/http"

	"idscan/internal/classify"
)

type ClassifyRequest struct {
	RawText   string `json:"rawText"`
	Symbology string `json:"symbology,omitempty"`
}

type ClassifyResponse struct {
	Useful bool   `json:"useful"`
	Reason string `json:"reason"`
}

// Classify lets thin clients reuse the server's payload-usefulness rules.
func (h *Handle) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json: " + err.Error()})
		return
	}
	if req.RawText == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing rawText"})
		return
	}
	v := classify.Classify(req.RawText, classify.Symbology(req.Symbology))
	writeJSON(w, http.StatusOK, ClassifyResponse{Useful: v.Useful, Reason: string(v.Reason)})
}
