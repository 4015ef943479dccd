package handle

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"idscan/internal/fields"
	"idscan/internal/pipeline"
	"idscan/internal/util"
	"idscan/internal/vision"
)

// RecognizeRequest carries the captured image as base64, bare or a data URL.
type RecognizeRequest struct {
	Image        string `json:"image"`
	DocumentHint string `json:"documentHint,omitempty"`
}

// RecognizeResponse is the shared envelope; success=false with HTTP 200 is
// the graceful "nothing recovered" outcome, not an error.
type RecognizeResponse struct {
	Success  bool                   `json:"success"`
	Data     *fields.IdentityFields `json:"data,omitempty"`
	Source   string                 `json:"source,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Attempts []vision.Attempt       `json:"attempts,omitempty"`
}

// Recognize runs the server-side vision failover chain on an image the
// client could not decode locally.
func (h *Handle) Recognize(w http.ResponseWriter, r *http.Request) {
	var req RecognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, RecognizeResponse{Success: false, Message: "bad json: " + err.Error()})
		return
	}
	img, ok := decodeImageField(w, req.Image)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r))
	defer cancel()

	res, err := h.Pipe.Recognize(ctx, img, req.DocumentHint)
	h.respond(w, res, err)
}

// Scan runs the full pipeline: decode cascade first, vision failover when
// no useful code is found.
func (h *Handle) Scan(w http.ResponseWriter, r *http.Request) {
	var req RecognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, RecognizeResponse{Success: false, Message: "bad json: " + err.Error()})
		return
	}
	img, ok := decodeImageField(w, req.Image)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r))
	defer cancel()

	res, err := h.Pipe.Scan(ctx, img, "")
	h.respond(w, res, err)
}

func (h *Handle) respond(w http.ResponseWriter, res pipeline.Result, err error) {
	switch {
	case err == nil:
		f := res.Fields
		writeJSON(w, http.StatusOK, RecognizeResponse{
			Success:  true,
			Data:     &f,
			Source:   res.Method,
			Attempts: res.Attempts,
		})
	case errors.Is(err, pipeline.ErrNotFound):
		writeJSON(w, http.StatusOK, RecognizeResponse{
			Success:  false,
			Message:  "no identity data recovered; enter fields manually",
			Attempts: res.Attempts,
		})
	default:
		var exhausted *vision.ExhaustedError
		if errors.As(err, &exhausted) {
			writeJSON(w, http.StatusOK, RecognizeResponse{
				Success:  false,
				Message:  "no identity data recovered; enter fields manually",
				Attempts: res.Attempts,
			})
			return
		}
		log.Printf("handle: recognize: %v", err)
		writeJSON(w, http.StatusInternalServerError, RecognizeResponse{Success: false, Message: "internal error"})
	}
}

func decodeImageField(w http.ResponseWriter, image string) ([]byte, bool) {
	if image == "" {
		writeJSON(w, http.StatusBadRequest, RecognizeResponse{Success: false, Message: "missing image"})
		return nil, false
	}
	img, _, err := util.DecodeBase64MaybeDataURL(image)
	if err != nil || len(img) == 0 {
		writeJSON(w, http.StatusBadRequest, RecognizeResponse{Success: false, Message: "bad image base64"})
		return nil, false
	}
	return img, true
}
