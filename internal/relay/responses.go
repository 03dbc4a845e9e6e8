package relay

// responses.go provides helper functions for sending HTTP responses from the
// relay API handlers, including the mapping from RelayError to the wire
// error format.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/darklock/relay/internal/logger"
)

// ErrorResponse is the wire format for relay errors.
type ErrorResponse struct {
	// Error is a sanitized human-readable message.
	Error string `json:"error"`

	// Code is the machine-readable error code (see errors.go).
	Code ErrorCode `json:"code"`

	// RequestID correlates the response with the server-side request log.
	RequestID string `json:"request_id,omitempty"`
}

// statusForCode maps relay error codes to HTTP status codes.
//
// Note that NOT_FOUND covers recipient mismatches as well as genuinely
// unknown ids - returning 403 for a mismatch would confirm the envelope
// exists to a caller who must not learn that.
func statusForCode(code ErrorCode) int {
	switch code {
	case ErrCodeMalformedRequest, ErrCodeInvalidRecipient:
		return http.StatusBadRequest
	case ErrCodePayloadTooLarge, ErrCodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToResponse maps any error to the wire error format plus an HTTP
// status code. Non-RelayError values are treated as internal errors and the
// unmapped type is logged - handlers are expected to wrap every error they
// surface.
func MapErrorToResponse(err error, r *http.Request) (int, *ErrorResponse) {
	requestID := middleware.GetReqID(r.Context())

	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return statusForCode(relayErr.Code()), &ErrorResponse{
			Error:     relayErr.message,
			Code:      relayErr.Code(),
			RequestID: requestID,
		}
	}

	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Error("BUG: unmapped error type in MapErrorToResponse",
		slog.String("error_type", fmt.Sprintf("%T", err)),
		slog.String("error", err.Error()),
		slog.String("request_id", requestID),
	)
	return http.StatusInternalServerError, &ErrorResponse{
		Error:     "an internal error occurred",
		Code:      ErrCodeInternal,
		RequestID: requestID,
	}
}

// RespondWithErrorResponse sends a relay error response as a JSON payload.
//
// It logs the full error details server-side (including any wrapped store
// error) and sends only the sanitized message to the client.
func RespondWithErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, errorResponse := MapErrorToResponse(err, r)

	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Warn("request failed",
		slog.String("error", err.Error()),
		slog.Int("status_code", statusCode),
		slog.String("error_code", string(errorResponse.Code)),
		slog.String("request_id", errorResponse.RequestID),
	)

	RespondWithJSONPayload(w, statusCode, errorResponse)
}

// RespondWithJSONPayload sends a JSON response with the given status code.
func RespondWithJSONPayload(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// headers are already written, so just log the failure
			slog.Error("failed to encode JSON response",
				slog.String("error", err.Error()),
			)
		}
	}
}
