package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/odyssey-erp/odyssey-console/internal/validation"
)

var (
	// ErrTransport marks requests that never produced an HTTP response.
	ErrTransport = errors.New("apiclient: transport failure")
	// ErrDecode marks response bodies that are not the expected JSON.
	ErrDecode = errors.New("apiclient: unreadable response")
)

const defaultFailureMessage = "Request failed. Please try again."

// TransportError wraps a network-level failure.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("apiclient: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// DecodeError wraps a JSON decoding failure.
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("apiclient: decode %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// APIError is a non-2xx response. Message is what the user should see.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apiclient: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// StatusCode returns the HTTP status of err when it is an APIError.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, true
	}
	return 0, false
}

// errorMessage picks the best message from a failed response: the server's
// message, title or detail when the body is JSON, the plain text otherwise,
// and finally the status text.
func errorMessage(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			for _, key := range []string{"message", "title", "detail"} {
				if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		} else {
			var text string
			if json.Unmarshal([]byte(trimmed), &text) == nil && text != "" {
				return text
			}
			if !strings.HasPrefix(trimmed, "<") {
				return trimmed
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return defaultFailureMessage
}

// UserMessage turns any error produced while talking to the backend, or by
// client-side validation, into text suitable for an alert.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	var verrs validation.Errors
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.As(err, &verrs):
		return verrs.Error()
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to respond. Please try again."
	case errors.Is(err, ErrTransport):
		return "Unable to reach the server. Check your connection and try again."
	case errors.Is(err, ErrDecode):
		return "The server returned an unreadable response."
	default:
		return err.Error()
	}
}
