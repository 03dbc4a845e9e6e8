package handlers

// push.go implements POST /envelopes: store an opaque envelope for later
// delivery to its recipient.

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/darklock/relay/internal/auth"
	"github.com/darklock/relay/internal/logger"
	"github.com/darklock/relay/internal/relay"
)

// PushHandler handles POST /envelopes requests.
type PushHandler struct {
	store relay.EnvelopeStore

	// maxCiphertextBytes caps the ciphertext alone. The request size
	// middleware caps the whole body; this check produces the more specific
	// error and protects callers that bypass the middleware.
	maxCiphertextBytes int64

	// maxFanout bounds the number of recipients one push may target.
	maxFanout int
}

// NewPushHandler creates a new handler for pushing envelopes.
func NewPushHandler(store relay.EnvelopeStore, maxCiphertextBytes int64, maxFanout int) *PushHandler {
	return &PushHandler{
		store:              store,
		maxCiphertextBytes: maxCiphertextBytes,
		maxFanout:          maxFanout,
	}
}

// HandlePush stores the pushed ciphertext and responds 201 with the
// server-assigned envelope id(s) and creation time.
//
// The relay attaches no meaning to the payload: the recipient id is a routing
// tag, the sender id is display-only, and the ciphertext is never parsed.
func (h *PushHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqLogger := logger.ContextRequestLogger(ctx)

	var req relay.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		relay.RespondWithErrorResponse(w, r,
			relay.WrapMalformedRequestError(err, "failed to decode push request"))
		return
	}
	defer r.Body.Close()

	if err := h.validate(&req); err != nil {
		relay.RespondWithErrorResponse(w, r, err)
		return
	}

	if len(req.RecipientIDs) > 0 {
		envelopes, err := h.store.PutFanout(ctx, req.RecipientIDs, req.SenderID, req.Ciphertext)
		if err != nil {
			reqLogger.Error("failed to store fan-out envelopes", slog.String("error", err.Error()))
			relay.RespondWithErrorResponse(w, r,
				relay.WrapStoreError(err, "failed to store envelopes"))
			return
		}

		response := relay.PushResponse{
			IDs:       make([]uuid.UUID, 0, len(envelopes)),
			CreatedAt: envelopes[0].CreatedAt,
		}
		for _, envelope := range envelopes {
			response.IDs = append(response.IDs, envelope.ID)
		}

		reqLogger.Info("envelopes stored",
			slog.Int("fanout", len(envelopes)),
		)
		relay.RespondWithJSONPayload(w, http.StatusCreated, response)
		return
	}

	envelope, err := h.store.Put(ctx, req.RecipientID, req.SenderID, req.Ciphertext)
	if err != nil {
		reqLogger.Error("failed to store envelope", slog.String("error", err.Error()))
		relay.RespondWithErrorResponse(w, r,
			relay.WrapStoreError(err, "failed to store envelope"))
		return
	}

	reqLogger.Info("envelope stored",
		slog.String("envelope_id", envelope.ID.String()),
	)
	relay.RespondWithJSONPayload(w, http.StatusCreated, relay.PushResponse{
		ID:        &envelope.ID,
		CreatedAt: envelope.CreatedAt,
	})
}

// validate enforces the push invariants: exactly one recipient form, no empty
// recipient ids, a non-empty ciphertext under the cap.
func (h *PushHandler) validate(req *relay.PushRequest) error {
	if req.RecipientID == "" && len(req.RecipientIDs) == 0 {
		return relay.NewInvalidRecipientError("recipient_id or recipient_ids is required")
	}
	if req.RecipientID != "" && len(req.RecipientIDs) > 0 {
		return relay.NewMalformedRequestError("recipient_id and recipient_ids are mutually exclusive")
	}
	if len(req.RecipientIDs) > h.maxFanout {
		return relay.NewMalformedRequestError(
			fmt.Sprintf("a push may target at most %d recipients", h.maxFanout))
	}
	for _, recipientID := range req.RecipientIDs {
		if recipientID == "" {
			return relay.NewInvalidRecipientError("recipient_ids must not contain empty ids")
		}
	}

	if req.Ciphertext == "" {
		return relay.NewMalformedRequestError("ciphertext is required")
	}
	if int64(len(req.Ciphertext)) > h.maxCiphertextBytes {
		return relay.NewPayloadTooLargeError(
			fmt.Sprintf("ciphertext size (%d bytes) exceeds maximum allowed size (%d bytes)",
				len(req.Ciphertext), h.maxCiphertextBytes))
	}

	return nil
}

// callerID returns the authenticated caller, which RequireAuth guarantees is
// present on envelope routes.
func callerID(r *http.Request) (string, error) {
	id, ok := auth.CallerID(r.Context())
	if !ok || id == "" {
		return "", relay.NewUnauthorizedError("missing caller identity")
	}
	return id, nil
}
