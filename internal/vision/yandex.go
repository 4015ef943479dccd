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

	"idscan/internal/util"
)

// YandexOCR is the conventional OCR fallback: highest availability, lowest
// accuracy, always last in the chain.
type YandexOCR struct {
	iamc     *iamClient
	folderID string
	httpc    *http.Client
}

func NewYandexOCR(oauthToken, folderID string) *YandexOCR {
	return &YandexOCR{
		iamc:     newIamClient(oauthToken),
		folderID: folderID,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (y *YandexOCR) Name() string { return "yandex-ocr" }

type yandexRequest struct {
	Content       string   `json:"content"`
	MimeType      string   `json:"mimeType,omitempty"`      // "JPEG" | "PNG" | "PDF"
	LanguageCodes []string `json:"languageCodes,omitempty"` // ["es","en"]
	Model         string   `json:"model,omitempty"`
}

type yandexResponse struct {
	Result *struct {
		TextAnnotation *struct {
			FullText string `json:"fullText,omitempty"`
			Blocks   []struct {
				Lines []struct {
					Text string `json:"text,omitempty"`
				} `json:"lines,omitempty"`
			} `json:"blocks,omitempty"`
		} `json:"textAnnotation,omitempty"`
	} `json:"result,omitempty"`
}

// Recognize returns the raw recognized text of the document photo.
func (y *YandexOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	if y.iamc.oauth == "" {
		return "", fmt.Errorf("yandex-ocr: %w", ErrMissingKey)
	}
	iamToken, err := y.iamc.token(ctx)
	if err != nil {
		return "", err
	}

	reqBody := yandexRequest{
		Content:       base64.StdEncoding.EncodeToString(image),
		MimeType:      util.SniffMimeForOCR(image),
		LanguageCodes: []string{"es", "en"},
		Model:         "page",
	}
	payload, _ := json.Marshal(reqBody)

	resp, err := y.post(ctx, iamToken, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// one retry with a fresh IAM token
		y.iamc.invalidate()
		if iamToken, err = y.iamc.token(ctx); err != nil {
			return "", err
		}
		resp, err = y.post(ctx, iamToken, payload)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
	}
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("yandex-ocr %d: %s", resp.StatusCode, string(x))
	}

	var out yandexResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Result == nil || out.Result.TextAnnotation == nil {
		return "", nil
	}
	if t := strings.TrimSpace(out.Result.TextAnnotation.FullText); t != "" {
		return t, nil
	}
	// fallback: rebuild from block lines
	var lines []string
	for _, b := range out.Result.TextAnnotation.Blocks {
		for _, l := range b.Lines {
			if s := strings.TrimSpace(l.Text); s != "" {
				lines = append(lines, s)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (y *YandexOCR) post(ctx context.Context, iamToken string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "POST",
		"https://ocr.api.cloud.yandex.net/ocr/v1/recognizeText",
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	req.Header.Set("x-folder-id", y.folderID)
	return y.httpc.Do(req)
}
