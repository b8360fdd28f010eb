package diagram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// mermaid-cli, which Kroki runs, gives every diagram this root id.
const krokiDefaultSVGID = "my-svg"

// KrokiRenderer renders diagrams through a Kroki server.
type KrokiRenderer struct {
	client *resty.Client
}

func NewKrokiRenderer(baseURL string, timeout time.Duration) *KrokiRenderer {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "image/svg+xml")
	return &KrokiRenderer{client: client}
}

func (r *KrokiRenderer) Render(ctx context.Context, scopeID string, source string) (string, error) {
	res, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(source).
		Post("/mermaid/svg")
	if err != nil {
		return "", fmt.Errorf("client.R().Post > %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("status code: %d, body: %s", res.StatusCode(), strings.TrimSpace(string(res.Body())))
	}
	return strings.ReplaceAll(string(res.Body()), krokiDefaultSVGID, scopeID), nil
}
