package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const maxErrorBody = 1 << 20

// ServerError is a 5xx answer intercepted by the circuit breaker.
type ServerError struct {
	StatusCode int
	Body       []byte
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// errorBody covers the three shapes the storefront API uses for failures:
// {"message": "..."}, {"error": "..."} and {"error": {"message": "..."}}.
type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// ExtractMessage returns the server-provided failure message in body, or ""
// when none can be found.
func ExtractMessage(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	if len(eb.Error) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(eb.Error, &s) == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(eb.Error, &nested) == nil {
		return nested.Message
	}
	return ""
}

// StatusError maps a non-2xx status and its body to the storefront error
// taxonomy: 401 and 403 become Unauthenticated, everything else
// RemoteRejected.
func StatusError(status int, body []byte) *apperrors.AppError {
	msg := ExtractMessage(body)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg == "" {
			msg = "please log in to continue"
		}
		return apperrors.Unauthenticated(msg)
	default:
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", status)
		}
		return apperrors.RemoteRejected(status, msg)
	}
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.Network(fmt.Errorf("read status %d body: %w", resp.StatusCode, err))
	}
	return StatusError(resp.StatusCode, body)
}

// AsServerError converts an error produced by CircuitBreakerClient for a 5xx
// response into the storefront error taxonomy.
func AsServerError(err error) (*apperrors.AppError, bool) {
	var se *ServerError
	if !errors.As(err, &se) {
		return nil, false
	}
	return StatusError(se.StatusCode, se.Body), true
}
