package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Client-side failure taxonomy. Every storefront operation resolves to one of
// these so that callers can decide between a login redirect, an inline form
// message, or a retry prompt.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNetwork         = errors.New("network error")
	ErrValidation      = errors.New("validation failed")
	ErrRemoteRejected  = errors.New("rejected by remote api")
	ErrInvalidSession  = errors.New("invalid checkout session")
)

// Sentinels used by the mock API when rendering responses.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInternal      = errors.New("internal error")
	ErrPaymentFailed = errors.New("payment failed")
)

// AppError is a structured error carrying a stable code, a user-facing
// message and, for validation failures, per-field messages.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Status  int               `json:"-"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// causeError keeps both the taxonomy sentinel and the underlying cause
// reachable through errors.Is / errors.As.
type causeError struct {
	kind  error
	cause error
}

func (c *causeError) Error() string   { return fmt.Sprintf("%v: %v", c.kind, c.cause) }
func (c *causeError) Unwrap() []error { return []error{c.kind, c.cause} }

// Unauthenticated reports a missing or expired session token.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHENTICATED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthenticated,
	}
}

// Network reports a transport failure or timeout talking to the remote API.
func Network(cause error) *AppError {
	var err error = ErrNetwork
	if cause != nil {
		err = &causeError{kind: ErrNetwork, cause: cause}
	}
	return &AppError{
		Code:    "NETWORK_ERROR",
		Message: "could not reach the store, please try again",
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// Validation reports a client-side form check failure. message is the first
// failing field's message; fields holds all of them.
func Validation(message string, fields map[string]string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Fields:  fields,
		Status:  http.StatusBadRequest,
		Err:     ErrValidation,
	}
}

// RemoteRejected reports a non-success response from the remote API. status is
// the HTTP status the server answered with.
func RemoteRejected(status int, message string) *AppError {
	return &AppError{
		Code:    "REMOTE_REJECTED",
		Message: message,
		Status:  status,
		Err:     ErrRemoteRejected,
	}
}

// InvalidSession reports a checkout started without a cart snapshot.
func InvalidSession(message string) *AppError {
	return &AppError{
		Code:    "INVALID_SESSION",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrInvalidSession,
	}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// PaymentFailed creates a 400 error for a declined or invalid card.
func PaymentFailed(message string) *AppError {
	return &AppError{
		Code:    "PAYMENT_FAILED",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrPaymentFailed,
	}
}

// Message returns the user-facing message of err: the AppError message when
// present, otherwise fallback.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation), errors.Is(err, ErrPaymentFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
