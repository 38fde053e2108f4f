package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 3 * time.Second
	maxSize        = 1024 // 1 KiB.
)

// Request is a single outbound webhook call, constructed per [Client.Send].
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// Transport performs [Request]s on behalf of a [Client]. Implementations
// must call done exactly once, with a nil error on success. They own all
// networking concerns (TLS, redirects, timeouts) and their concurrency model.
type Transport interface {
	Do(ctx context.Context, req Request, done func(error))
}

// TransportFunc adapts an ordinary function into a [Transport].
type TransportFunc func(ctx context.Context, req Request, done func(error))

func (f TransportFunc) Do(ctx context.Context, req Request, done func(error)) {
	f(ctx, req, done)
}

// HTTPTransport is the default [Transport]. It sends each request
// in its own goroutine, and reports non-2xx responses as [RequestError]s.
type HTTPTransport struct {
	client  *http.Client
	timeout time.Duration
}

type HTTPOption func(*HTTPTransport)

// WithHTTPClient sets the underlying HTTP client (default: [http.DefaultClient]).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		t.client = c
	}
}

// WithTimeout sets the per-request timeout (default: [DefaultTimeout]).
// A non-positive value disables it, leaving only the context's deadline.
func WithTimeout(d time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		t.timeout = d
	}
}

func NewHTTPTransport(opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) Do(ctx context.Context, req Request, done func(error)) {
	go func() {
		done(t.roundTrip(ctx, req))
	}()
}

func (t *HTTPTransport) roundTrip(ctx context.Context, r Request) error {
	l := zerolog.Ctx(ctx)

	// Construct and send the request.
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, strings.NewReader(r.Body))
	if err != nil {
		return &RequestError{Err: fmt.Errorf("failed to construct HTTP request: %w", err)}
	}

	req.Header = r.Header.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return &RequestError{Err: fmt.Errorf("failed to send HTTP request: %w", err)}
	}
	defer resp.Body.Close()

	// Read the response: Slack replies with "ok", or a short error string.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize))
	if err != nil {
		l.Warn().Err(err).Int("status_code", resp.StatusCode).
			Msg("failed to read HTTP response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	l.Trace().Int("status_code", resp.StatusCode).Str("body", string(body)).
		Msg("webhook response")
	return nil
}
