package n8n

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/flowsync/internal/core/domain"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// APIError is a non-2xx response from the N8N public API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("n8n %s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap maps 404 to domain.ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

// Temporary reports whether the failure is on the server side and should
// count towards opening the circuit breaker.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       text,
	}
}
