package openai

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"tolk-server-go/internal/domain/provider"
)

const maxErrorBody = 64 << 10

type captureKey struct{}

// bodyCapture holds the raw body of a failed response for the current call.
type bodyCapture struct {
	mu   sync.Mutex
	body string
}

func withCapture(ctx context.Context) (context.Context, *bodyCapture) {
	c := &bodyCapture{}
	return context.WithValue(ctx, captureKey{}, c), c
}

func (c *bodyCapture) get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.body
}

// doer decorates the client transport: it applies the optional authorizer and keeps
// a copy of non-2xx bodies so errors can carry the provider's verbatim reply.
type doer struct {
	client     *http.Client
	authorizer provider.Authorizer
}

func (d *doer) Do(req *http.Request) (*http.Response, error) {
	if d.authorizer != nil {
		if err := d.authorizer.Apply(req.Context(), req); err != nil {
			return nil, err
		}
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	if c, ok := req.Context().Value(captureKey{}).(*bodyCapture); ok {
		c.mu.Lock()
		c.body = strings.TrimSpace(string(raw))
		c.mu.Unlock()
	}
	return resp, nil
}
