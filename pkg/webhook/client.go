package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tzrikka/slackey/pkg/qs"
)

const (
	ContentType = "application/x-www-form-urlencoded"
	payloadKey  = "payload"
)

// Config holds the options of a [Client].
type Config struct {
	// WebhookURL is the Slack Incoming Webhook URL. Required.
	WebhookURL string
	// Transport defaults to an [HTTPTransport] with default options.
	Transport Transport
}

// CompletionFunc receives the outcome of a single [Client.Send] call.
type CompletionFunc func(error)

// Client sends messages to a single Slack Incoming Webhook.
// It is immutable, and safe for concurrent use.
type Client struct {
	url       string
	transport Transport
}

// New returns a [Client] bound to the configured webhook URL,
// or a [ConfigError] if the URL is missing.
func New(cfg Config) (*Client, error) {
	if cfg.WebhookURL == "" {
		return nil, &ConfigError{Field: "WebhookURL"}
	}

	t := cfg.Transport
	if t == nil {
		t = NewHTTPTransport()
	}

	return &Client{url: cfg.WebhookURL, transport: t}, nil
}

func (c *Client) WebhookURL() string {
	return c.url
}

// Send posts the JSON serialization of the given payload to the webhook,
// following Slack's webhook calling conventions. The optional done function
// is called exactly once, with the transport's error or nil. Slack doesn't
// return any valuable information on success.
//
// Send returns an error only if the payload cannot be encoded,
// in which case no request is made and done is not called.
func (c *Client) Send(ctx context.Context, payload any, done CompletionFunc) error {
	req, err := c.newRequest(payload)
	if err != nil {
		return err
	}

	l := zerolog.Ctx(ctx)
	l.Debug().Int("body_length", len(req.Body)).Msg("sending Slack webhook request")

	var once sync.Once
	c.transport.Do(ctx, req, func(err error) {
		once.Do(func() {
			if err != nil {
				l.Warn().Err(err).Msg("Slack webhook request failed")
			}
			if done != nil {
				done(err)
			}
		})
	})

	return nil
}

// Post is a synchronous version of [Client.Send]: it waits
// for the request to complete, or for the context to be done.
func (c *Client) Post(ctx context.Context, payload any) error {
	errs := make(chan error, 1)
	if err := c.Send(ctx, payload, func(err error) { errs <- err }); err != nil {
		return err
	}

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) newRequest(payload any) (Request, error) {
	j, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("failed to serialize webhook payload: %w", err)
	}

	body, err := qs.Encode(map[string]any{payloadKey: string(j)})
	if err != nil {
		return Request{}, fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	return Request{
		Method: http.MethodPost,
		URL:    c.url,
		Header: http.Header{"Content-Type": []string{ContentType}},
		Body:   body,
	}, nil
}
