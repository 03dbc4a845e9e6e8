package relay

// errors.go defines the error taxonomy used by the relay API

import "fmt"

// RelayError represents a structured error from the relay package.
type RelayError struct {
	// code is the wire error code returned to clients
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *RelayError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *RelayError) Code() ErrorCode { return e.code }
func (e *RelayError) Unwrap() error   { return e.wrapped }

// ErrorCode is the machine-readable code included in relay error responses.
//
// The taxonomy is deliberately small: clients only need to distinguish
// definitive rejections (4xx, do not retry) from transient failures
// (503, retry with backoff).
type ErrorCode string

const (
	// ErrCodeMalformedRequest is used when the request body cannot be parsed
	// or fails basic validation.
	ErrCodeMalformedRequest ErrorCode = "MALFORMED_REQUEST"

	// ErrCodeInvalidRecipient is used when a push names no recipient.
	ErrCodeInvalidRecipient ErrorCode = "INVALID_RECIPIENT"

	// ErrCodePayloadTooLarge is used when the ciphertext exceeds the
	// configured cap.
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"

	// ErrCodeRequestTooLarge is used when the whole request body exceeds the
	// configured cap - this is only used in the middleware.
	ErrCodeRequestTooLarge ErrorCode = "REQUEST_TOO_LARGE"

	// ErrCodeUnauthorized is used when the bearer token is missing, malformed,
	// expired, or not signed with the shared secret.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeNotFound is used when an envelope does not exist - and, on ack,
	// when it exists but belongs to a different recipient, so that acking a
	// guessed id confirms nothing.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeRateLimited is used when the global rate limit is exceeded
	// - this is only used in the middleware.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	// ErrCodeStoreUnavailable is used when the envelope store cannot be
	// reached or a statement fails. Safe for clients to retry with backoff.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"

	// ErrCodeInternal is used for unexpected server-side failures.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// NewMalformedRequestError creates an error for malformed requests.
func NewMalformedRequestError(msg string) error {
	return &RelayError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps an existing error as a malformed request error.
func WrapMalformedRequestError(err error, msg string) error {
	return &RelayError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// NewInvalidRecipientError creates an error for a push with a missing or
// empty recipient id.
func NewInvalidRecipientError(msg string) error {
	return &RelayError{code: ErrCodeInvalidRecipient, message: msg}
}

// NewPayloadTooLargeError creates an error for a ciphertext exceeding the cap.
func NewPayloadTooLargeError(msg string) error {
	return &RelayError{code: ErrCodePayloadTooLarge, message: msg}
}

// NewRequestTooLargeError creates an error for a request body exceeding the cap.
// Use this from the request size middleware.
func NewRequestTooLargeError(msg string) error {
	return &RelayError{code: ErrCodeRequestTooLarge, message: msg}
}

// NewUnauthorizedError creates an error for a missing or invalid bearer token.
//
// The message is returned to the client, so it must not echo token contents.
func NewUnauthorizedError(msg string) error {
	return &RelayError{code: ErrCodeUnauthorized, message: msg}
}

// WrapUnauthorizedError wraps a token verification failure.
func WrapUnauthorizedError(err error, msg string) error {
	return &RelayError{code: ErrCodeUnauthorized, message: msg, wrapped: err}
}

// NewNotFoundError creates an error for an unknown (or foreign) envelope id.
func NewNotFoundError(msg string) error {
	return &RelayError{code: ErrCodeNotFound, message: msg}
}

// NewRateLimitError creates a rate limit exceeded error.
func NewRateLimitError(msg string) error {
	return &RelayError{code: ErrCodeRateLimited, message: msg}
}

// WrapStoreError wraps a storage failure. The wrapped error is logged
// server-side; only the sanitized message reaches the client.
func WrapStoreError(err error, msg string) error {
	return &RelayError{code: ErrCodeStoreUnavailable, message: msg, wrapped: err}
}

// NewInternalError creates an internal error for unexpected failures.
func NewInternalError(msg string) error {
	return &RelayError{code: ErrCodeInternal, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
func WrapInternalError(err error, msg string) error {
	return &RelayError{code: ErrCodeInternal, message: msg, wrapped: err}
}
