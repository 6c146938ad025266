// Package httpsend delivers envelopes from the test process to a collector
// over HTTP.
package httpsend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/crimson-sun/runlog/internal/model"
)

const (
	// MessagesPath is where collectors accept envelopes.
	MessagesPath = "/v1/messages"
	// MessageIDHeader carries a per-envelope id; retries reuse it.
	MessageIDHeader = "X-Runlog-Message-Id"

	defaultTimeout = 10 * time.Second
	defaultBackoff = time.Second
	maxRetries     = 3
)

// Option configures an Output.
type Option func(*Output)

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.headers = h }
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.client.Timeout = d }
}

// WithBackoff sets the delay before the first retry; it doubles on each
// further attempt. Default: 1s.
func WithBackoff(d time.Duration) Option {
	return func(o *Output) { o.backoff = d }
}

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(o *Output) { o.client = c }
}

// Output POSTs each envelope as JSON to a collector. 5xx responses are
// retried with exponential backoff; other failures are returned at once.
type Output struct {
	client  *http.Client
	url     string
	headers map[string]string
	backoff time.Duration
}

// New creates an Output targeting the collector at baseURL.
func New(baseURL string, opts ...Option) *Output {
	o := &Output{
		client:  &http.Client{Timeout: defaultTimeout},
		url:     strings.TrimSuffix(baseURL, "/") + MessagesPath,
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Write sends env and waits for the collector to accept it.
func (o *Output) Write(ctx context.Context, env model.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("httpsend: marshal: %w", err)
	}
	return o.postWithRetry(ctx, uuid.NewString(), body)
}

// Close is a no-op; the client holds no per-output resources.
func (o *Output) Close() error {
	return nil
}

func (o *Output) postWithRetry(ctx context.Context, id string, body []byte) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(o.backoff << (attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("httpsend: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(MessageIDHeader, id)
		for k, v := range o.headers {
			req.Header.Set(k, v)
		}

		resp, err := o.client.Do(req)
		if err != nil {
			return fmt.Errorf("httpsend: %w", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = fmt.Errorf("httpsend: HTTP %d", resp.StatusCode)
		if resp.StatusCode < 500 {
			return lastErr
		}
	}
	return lastErr
}
