package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"idscan/internal/fields"
	"idscan/internal/util"
)

// Gemini extracts fields through the generative-ai SDK with a strict JSON
// response MIME.
type Gemini struct {
	APIKey    string
	ModelName string
}

func NewGemini(key, model string) *Gemini {
	return &Gemini{APIKey: strings.TrimSpace(key), ModelName: strings.TrimSpace(model)}
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.ModelName }

func (g *Gemini) Extract(ctx context.Context, image []byte, documentHint string) (fields.IdentityFields, error) {
	if g.APIKey == "" {
		return fields.IdentityFields{}, fmt.Errorf("gemini: %w", ErrMissingKey)
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return fields.IdentityFields{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.ModelName)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(extractionPrompt)},
	}

	user := "Return strict JSON only."
	if h := strings.TrimSpace(documentHint); h != "" {
		user += " document_hint=" + fmt.Sprintf("%q", h)
	}
	parts := []genai.Part{
		genai.Text(user),
		&genai.Blob{MIMEType: util.SniffMimeHTTP(image), Data: image},
	}

	// Bounded retries cover transient 5xx; anything else is the chain's
	// problem.
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return fields.IdentityFields{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return fields.IdentityFields{}, fmt.Errorf("gemini extract: %w", ErrEmptyResult)
		}
		return decodeWire(txt, fields.VisionSource("gemini"))
	}
	return fields.IdentityFields{}, fmt.Errorf("gemini extract: %w", lastErr)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			if s := strings.TrimSpace(string(t)); s != "" {
				return s
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
