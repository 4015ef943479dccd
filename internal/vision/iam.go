package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// iamClient exchanges a Yandex OAuth token for an IAM token and caches it
// just short of its 12-hour lifetime.
type iamClient struct {
	httpc  *http.Client
	oauth  string
	mu     sync.Mutex
	cached string
	expiry time.Time
}

func newIamClient(oauth string) *iamClient {
	return &iamClient{
		httpc: &http.Client{Timeout: 20 * time.Second},
		oauth: oauth,
	}
}

func (c *iamClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != "" && time.Now().Before(c.expiry.Add(-time.Minute)) {
		return c.cached, nil
	}

	body := map[string]string{"yandexPassportOauthToken": c.oauth}
	b, _ := json.Marshal(body)
	req, _ := http.NewRequestWithContext(ctx, "POST", "https://iam.api.cloud.yandex.net/iam/v1/tokens", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("iam %d", resp.StatusCode)
	}

	var out struct {
		IamToken string `json:"iamToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	c.cached = out.IamToken
	c.expiry = time.Now().Add(11 * time.Hour)
	return c.cached, nil
}

func (c *iamClient) invalidate() {
	c.mu.Lock()
	c.cached = ""
	c.mu.Unlock()
}
