package rest

import (
	"errors"
	"fmt"
)

// ErrTimeout marks a request that exceeded the gateway deadline. The
// underlying HTTP request is aborted by context cancellation.
var ErrTimeout = errors.New("request timed out")

// HTTPError is returned for any non-2xx response. Message is the best-effort
// human-readable explanation extracted from the response body.
type HTTPError struct {
	Status  int
	Message string
	Data    any
}

func (e *HTTPError) Error() string {
	return e.Message
}

// extractMessage picks the most useful error text from a decoded response
// body, in order: a message/title/error field of a JSON object, the raw text
// body, else a generic string carrying the status.
func extractMessage(data any, status int) string {
	switch v := data.(type) {
	case map[string]any:
		for _, key := range []string{"message", "title", "error"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
	case string:
		if v != "" {
			return v
		}
	}
	return fmt.Sprintf("Request failed (%d)", status)
}
