package webhook

import (
	"errors"
	"fmt"
)

// ErrRequest matches any [RequestError] with [errors.Is].
var ErrRequest = errors.New("webhook request failed")

// ConfigError is returned by [New] when the client configuration is invalid.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("webhook client requires the %q option", e.Field)
}

// RequestError reports a failed webhook call: either a network error
// (in which case StatusCode is 0 and Err is set), or a non-2xx response.
type RequestError struct {
	StatusCode int
	Status     string
	Body       string // Slack's plain-text error, e.g. "invalid_payload".
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrRequest, e.Err)
	}

	msg := fmt.Sprintf("%s: %s", ErrRequest, e.Status)
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequest
}
