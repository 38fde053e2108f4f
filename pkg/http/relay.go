package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/tzrikka/slackey/pkg/webhook"
)

const (
	timeout     = 3 * time.Second
	maxBodySize = 1 << 20 // 1 MiB.
)

// poster is implemented by [webhook.Client].
type poster interface {
	Post(ctx context.Context, payload any) error
}

type httpServer struct {
	httpPort int
	client   poster
}

func newHTTPServer(cmd *cli.Command, c poster) *httpServer {
	return &httpServer{
		httpPort: cmd.Int("port"),
		client:   c,
	}
}

func (s *httpServer) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /send", s.sendHandler)
	mux.HandleFunc("POST /send/{name...}", s.sendHandler)
	return mux
}

// run starts an HTTP server which relays messages to the Slack webhook.
// This is blocking, to keep the Slackey server running.
func (s *httpServer) run() error {
	server := &http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(s.httpPort)),
		Handler: s.mux(),
		// Relaying waits for Slack's response.
		ReadTimeout:  timeout,
		WriteTimeout: 2 * timeout,
	}

	log.Info().Msgf("HTTP relay server listening on port %d", s.httpPort)
	err := server.ListenAndServe()
	if err != nil {
		log.Err(err).Send()
		return err
	}

	return nil
}

// sendHandler accepts a message in the same format as a Slack Incoming Webhook
// (a JSON body, or a web form with a "payload" field), and relays it to Slack.
// The optional path suffix is an opaque label, used only for logging.
func (s *httpServer) sendHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	l := log.With().Str("request_id", shortuuid.New()).Str("http_method", r.Method).
		Str("url_path", r.URL.EscapedPath()).Logger()
	if name := r.PathValue("name"); name != "" {
		l = l.With().Str("name", name).Logger()
	}
	l.Info().Msg("received HTTP request")

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	payload, statusCode := readPayload(r, l)
	if statusCode != http.StatusOK {
		// Logging already done in [readPayload].
		w.WriteHeader(statusCode)
		return
	}

	if err := s.client.Post(l.WithContext(r.Context()), payload); err != nil {
		l.Warn().Err(err).Msg("failed to relay message to Slack")
		msg := http.StatusText(http.StatusBadGateway)
		var re *webhook.RequestError
		if errors.As(err, &re) && re.Body != "" {
			msg = re.Body
		}
		http.Error(w, msg, http.StatusBadGateway)
		return
	}

	l.Debug().Msg("relayed message to Slack")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// readPayload extracts the JSON object from the request body.
// It returns [http.StatusOK] if the payload is valid.
func readPayload(r *http.Request, l zerolog.Logger) (map[string]any, int) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		l.Warn().Err(err).Msg("bad request: invalid content type")
		return nil, http.StatusUnsupportedMediaType
	}

	var raw []byte
	switch mediaType {
	case "application/json":
		raw, err = io.ReadAll(r.Body)
		if err != nil {
			l.Warn().Err(err).Msg("bad request: failed to read body")
			return nil, http.StatusBadRequest
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			l.Warn().Err(err).Msg("bad request: failed to parse form")
			return nil, http.StatusBadRequest
		}
		raw = []byte(r.PostForm.Get("payload"))
	default:
		l.Warn().Str("content_type", mediaType).Msg("bad request: unsupported content type")
		return nil, http.StatusUnsupportedMediaType
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		l.Warn().Msg("bad request: empty payload")
		return nil, http.StatusBadRequest
	}

	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()
	m := map[string]any{}
	if err := d.Decode(&m); err != nil || m == nil {
		l.Warn().Err(err).Msg("bad request: payload is not a JSON object")
		return nil, http.StatusBadRequest
	}
	if d.More() {
		l.Warn().Msg("bad request: trailing data after JSON payload")
		return nil, http.StatusBadRequest
	}

	return m, http.StatusOK
}
