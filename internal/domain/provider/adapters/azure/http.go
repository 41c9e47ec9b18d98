package azure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tolk-server-go/internal/platform/errors"
)

const maxErrorBody = 64 << 10

// httpClient is shared by the Azure REST adapters; per-call deadlines come from the context.
var httpClient = &http.Client{Timeout: 120 * time.Second}

// do sends req and returns the body of a 2xx response. Any other status becomes a
// provider error carrying the raw body as its detail.
func do(ctx context.Context, client *http.Client, op string, req *http.Request) ([]byte, http.Header, error) {
	if client == nil {
		client = httpClient
	}
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, nil, errors.Provider(op, "request failed", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := strings.TrimSpace(string(body))
		return nil, nil, errors.Provider(op, fmt.Sprintf("unexpected status %d", resp.StatusCode), detail, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Provider(op, "failed to read response", "", err)
	}
	return body, resp.Header, nil
}
