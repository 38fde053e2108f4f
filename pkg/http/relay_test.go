package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/tzrikka/slackey/pkg/webhook"
)

func TestHTTPServerSendHandler(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		slackStatus int
		slackBody   string
		wantStatus  int
		wantResp    string
		wantPayload string
	}{
		{
			name:        "json_body",
			path:        "/send",
			contentType: "application/json",
			body:        `{"text": "hi"}`,
			slackStatus: http.StatusOK,
			slackBody:   "ok",
			wantStatus:  http.StatusOK,
			wantResp:    "ok",
			wantPayload: `{"text":"hi"}`,
		},
		{
			name:        "json_body_with_charset_and_label",
			path:        "/send/alerts/prod",
			contentType: "application/json; charset=utf-8",
			body:        `{"ts": 1712345678.123456, "text": "x"}`,
			slackStatus: http.StatusOK,
			wantStatus:  http.StatusOK,
			wantResp:    "ok",
			wantPayload: `{"text":"x","ts":1712345678.123456}`,
		},
		{
			name:        "form_body",
			path:        "/send",
			contentType: "application/x-www-form-urlencoded",
			body:        "payload=" + url.QueryEscape(`{"text":"a b"}`),
			slackStatus: http.StatusOK,
			wantStatus:  http.StatusOK,
			wantResp:    "ok",
			wantPayload: `{"text":"a b"}`,
		},
		{
			name:        "slack_error",
			path:        "/send",
			contentType: "application/json",
			body:        `{"text": ""}`,
			slackStatus: http.StatusBadRequest,
			slackBody:   "no_text",
			wantStatus:  http.StatusBadGateway,
			wantResp:    "no_text\n",
			wantPayload: `{"text":""}`,
		},
		{
			name:        "unsupported_content_type",
			path:        "/send",
			contentType: "text/plain",
			body:        "hi",
			wantStatus:  http.StatusUnsupportedMediaType,
		},
		{
			name:       "missing_content_type",
			path:       "/send",
			body:       `{"text": "hi"}`,
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:        "empty_json",
			path:        "/send",
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "json_array",
			path:        "/send",
			contentType: "application/json",
			body:        `["hi"]`,
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "json_null",
			path:        "/send",
			contentType: "application/json",
			body:        `null`,
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "trailing_data",
			path:        "/send",
			contentType: "application/json",
			body:        `{"text": "hi"} {}`,
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "form_without_payload",
			path:        "/send",
			contentType: "application/x-www-form-urlencoded",
			body:        "text=hi",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "invalid_json_in_form",
			path:        "/send",
			contentType: "application/x-www-form-urlencoded",
			body:        "payload=%7Bnope",
			wantStatus:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payloads := make(chan string, 1)
			slack := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("Slack request form error: %v", err)
				}
				payloads <- r.PostForm.Get("payload")
				w.WriteHeader(tt.slackStatus)
				_, _ = w.Write([]byte(tt.slackBody))
			}))
			defer slack.Close()

			c, err := webhook.New(webhook.Config{WebhookURL: slack.URL})
			if err != nil {
				t.Fatal(err)
			}
			s := &httpServer{client: c}

			w := httptest.NewRecorder()
			r := httptest.NewRequestWithContext(t.Context(), http.MethodPost, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			s.mux().ServeHTTP(w, r)

			got := w.Result()
			if got.StatusCode != tt.wantStatus {
				t.Errorf("response status code: got %d, want %d", got.StatusCode, tt.wantStatus)
			}
			body, _ := io.ReadAll(got.Body)
			if tt.wantResp != "" && string(body) != tt.wantResp {
				t.Errorf("response body: got %q, want %q", string(body), tt.wantResp)
			}

			if tt.wantPayload == "" {
				if len(payloads) > 0 {
					t.Errorf("unexpected Slack request: %q", <-payloads)
				}
				return
			}
			if got := <-payloads; got != tt.wantPayload {
				t.Errorf("relayed payload: got %q, want %q", got, tt.wantPayload)
			}
		})
	}
}

func TestHTTPServerSendHandlerNetworkError(t *testing.T) {
	s := &httpServer{client: posterFunc(func() error {
		return &webhook.RequestError{Err: errors.New("connection refused")}
	})}

	w := httptest.NewRecorder()
	r := httptest.NewRequestWithContext(t.Context(), http.MethodPost, "/send", strings.NewReader(`{"text":"hi"}`))
	r.Header.Set("Content-Type", "application/json")
	s.mux().ServeHTTP(w, r)

	got := w.Result()
	if got.StatusCode != http.StatusBadGateway {
		t.Errorf("response status code: got %d, want %d", got.StatusCode, http.StatusBadGateway)
	}
	body, _ := io.ReadAll(got.Body)
	if want := http.StatusText(http.StatusBadGateway) + "\n"; string(body) != want {
		t.Errorf("response body: got %q, want %q", string(body), want)
	}
}

func TestHTTPServerMethodNotAllowed(t *testing.T) {
	s := &httpServer{client: posterFunc(func() error {
		t.Error("unexpected Post() call")
		return nil
	})}

	w := httptest.NewRecorder()
	r := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/send", http.NoBody)
	s.mux().ServeHTTP(w, r)

	if got := w.Result().StatusCode; got != http.StatusMethodNotAllowed {
		t.Errorf("response status code: got %d, want %d", got, http.StatusMethodNotAllowed)
	}
}

type posterFunc func() error

func (f posterFunc) Post(_ context.Context, _ any) error {
	return f()
}

func TestCheckLinkID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{
			name:    "invalid_id",
			id:      "111",
			wantErr: true,
		},
		{
			name: "valid_id",
			id:   "KE9jTT8u6FZW6qYKgpYoEA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkLinkID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkLinkID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errInvalidLinkID) {
				t.Errorf("checkLinkID() error = %v, want %v", err, errInvalidLinkID)
			}
		})
	}
}
