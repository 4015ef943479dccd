package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"idscan/internal/fields"
	"idscan/internal/util"
)

// ChatProvider calls an OpenAI-compatible chat-completions API with an
// image part. Both the OpenAI and DeepSeek endpoints speak this shape.
type ChatProvider struct {
	ProviderName string
	APIKey       string
	ModelName    string
	BaseURL      string
	httpc        *http.Client
}

func NewOpenAI(key, model string) *ChatProvider {
	return &ChatProvider{
		ProviderName: "gpt",
		APIKey:       key,
		ModelName:    model,
		BaseURL:      "https://api.openai.com",
		httpc:        &http.Client{Timeout: 60 * time.Second},
	}
}

func NewDeepseek(key, model string) *ChatProvider {
	return &ChatProvider{
		ProviderName: "deepseek",
		APIKey:       key,
		ModelName:    model,
		BaseURL:      "https://api.deepseek.com",
		httpc:        &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *ChatProvider) Name() string  { return p.ProviderName }
func (p *ChatProvider) Model() string { return p.ModelName }

func (p *ChatProvider) Extract(ctx context.Context, image []byte, documentHint string) (fields.IdentityFields, error) {
	if strings.TrimSpace(p.APIKey) == "" {
		return fields.IdentityFields{}, fmt.Errorf("%s: %w", p.ProviderName, ErrMissingKey)
	}

	mime := util.SniffMimeHTTP(image)
	dataURL := util.MakeDataURL(mime, base64.StdEncoding.EncodeToString(image))

	user := "Return strict JSON only."
	if h := strings.TrimSpace(documentHint); h != "" {
		user += " document_hint=" + fmt.Sprintf("%q", h)
	}

	body := map[string]any{
		"model": p.ModelName,
		"messages": []any{
			map[string]any{"role": "system", "content": extractionPrompt},
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": user},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": dataURL, "detail": "high"}},
				},
			},
		},
		"temperature":     0,
		"response_format": map[string]any{"type": "json_object"},
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", strings.TrimRight(p.BaseURL, "/")+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return fields.IdentityFields{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.httpc.Do(req)
	if err != nil {
		return fields.IdentityFields{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return fields.IdentityFields{}, fmt.Errorf("%s extract %d: %s", p.ProviderName, resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fields.IdentityFields{}, err
	}
	if len(raw.Choices) == 0 {
		return fields.IdentityFields{}, fmt.Errorf("%s extract: %w", p.ProviderName, ErrEmptyResult)
	}

	return decodeWire(raw.Choices[0].Message.Content, fields.VisionSource(p.ProviderName))
}
