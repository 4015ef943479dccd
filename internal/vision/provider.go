// Package vision is the server-side failover chain: an ordered list of AI
// vision providers, then a conventional OCR service, tried until one yields
// usable identity fields.
package vision

import (
	"context"
	"errors"
	"time"

	"idscan/internal/fields"
)

// Provider is one AI vision model able to extract structured fields from a
// document photo.
type Provider interface {
	Name() string
	Model() string
	Extract(ctx context.Context, image []byte, documentHint string) (fields.IdentityFields, error)
}

// TextRecognizer is a plain OCR service; its raw text goes through the
// stacked-text parsing strategy.
type TextRecognizer interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Sentinel failure modes a provider can report; everything else is an
// opaque transport/API error.
var (
	ErrMissingKey  = errors.New("provider API key not configured")
	ErrEmptyResult = errors.New("provider returned no usable fields")
	ErrBadJSON     = errors.New("provider returned malformed JSON")
)

type ErrClass string

const (
	ErrClassNone    ErrClass = ""
	ErrClassTimeout ErrClass = "timeout"
	ErrClassNoKey   ErrClass = "missing_key"
	ErrClassEmpty   ErrClass = "empty_result"
	ErrClassBadJSON ErrClass = "bad_json"
	ErrClassAPI     ErrClass = "api_error"
)

// Attempt is one entry of the per-request diagnostics log.
type Attempt struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model,omitempty"`
	Ordinal  int           `json:"ordinal"`
	OK       bool          `json:"ok"`
	ErrClass ErrClass      `json:"errClass,omitempty"`
	Latency  time.Duration `json:"latencyMs"`
}

func classifyErr(err error) ErrClass {
	switch {
	case err == nil:
		return ErrClassNone
	case errors.Is(err, context.DeadlineExceeded):
		return ErrClassTimeout
	case errors.Is(err, ErrMissingKey):
		return ErrClassNoKey
	case errors.Is(err, ErrEmptyResult):
		return ErrClassEmpty
	case errors.Is(err, ErrBadJSON):
		return ErrClassBadJSON
	}
	return ErrClassAPI
}
