package handlers

// ack.go implements the two acknowledgment endpoints:
//
//	POST /envelopes/{envelopeID}/ack - single ack
//	POST /envelopes/ack              - batch ack
//
// Ack is idempotent by contract: clients retry acks on network failure, so a
// repeat ack must be a no-op success, not an error.

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/darklock/relay/internal/logger"
	"github.com/darklock/relay/internal/relay"
)

// AckHandler handles envelope acknowledgment requests.
type AckHandler struct {
	store relay.EnvelopeStore

	// maxBatch bounds the number of ids in one batch ack.
	maxBatch int
}

// NewAckHandler creates a new handler for acking envelopes.
func NewAckHandler(store relay.EnvelopeStore, maxBatch int) *AckHandler {
	return &AckHandler{
		store:    store,
		maxBatch: maxBatch,
	}
}

// HandleAck marks one envelope delivered. The response reports whether this
// call caused the pending→acked transition: a repeat ack gets 200 with
// acked=false. An id that does not exist - or exists but is addressed to a
// different recipient - gets 404, so acking guessed ids confirms nothing.
func (h *AckHandler) HandleAck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqLogger := logger.ContextRequestLogger(ctx)

	recipientID, err := callerID(r)
	if err != nil {
		relay.RespondWithErrorResponse(w, r, err)
		return
	}

	// Unparseable ids are indistinguishable from unknown ones on purpose:
	// the id space is opaque to clients.
	envelopeID, err := uuid.Parse(chi.URLParam(r, "envelopeID"))
	if err != nil {
		relay.RespondWithErrorResponse(w, r, relay.NewNotFoundError("envelope not found"))
		return
	}

	acked, err := h.store.Ack(ctx, envelopeID, recipientID)
	if err != nil {
		reqLogger.Error("failed to ack envelope", slog.String("error", err.Error()))
		relay.RespondWithErrorResponse(w, r,
			relay.WrapStoreError(err, "failed to ack envelope"))
		return
	}

	if !acked {
		// Not newly acked: either a repeat ack (fine) or an id the caller
		// does not own (404).
		exists, err := h.store.Exists(ctx, envelopeID, recipientID)
		if err != nil {
			reqLogger.Error("failed to check envelope", slog.String("error", err.Error()))
			relay.RespondWithErrorResponse(w, r,
				relay.WrapStoreError(err, "failed to ack envelope"))
			return
		}
		if !exists {
			relay.RespondWithErrorResponse(w, r, relay.NewNotFoundError("envelope not found"))
			return
		}
	}

	if acked {
		reqLogger.Info("envelope acked",
			slog.String("envelope_id", envelopeID.String()),
		)
	}

	relay.RespondWithJSONPayload(w, http.StatusOK, relay.AckResponse{Acked: acked})
}

// HandleAckBatch marks several envelopes delivered in one call and returns
// the ids this call newly acked. Ids that are unknown, foreign, or already
// acked are omitted without error - the client's retry loop treats the
// response as authoritative and drops whatever it sent.
func (h *AckHandler) HandleAckBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqLogger := logger.ContextRequestLogger(ctx)

	recipientID, err := callerID(r)
	if err != nil {
		relay.RespondWithErrorResponse(w, r, err)
		return
	}

	var req relay.AckBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		relay.RespondWithErrorResponse(w, r,
			relay.WrapMalformedRequestError(err, "failed to decode ack request"))
		return
	}
	defer r.Body.Close()

	if len(req.EnvelopeIDs) == 0 {
		relay.RespondWithErrorResponse(w, r,
			relay.NewMalformedRequestError("envelope_ids is required"))
		return
	}
	if len(req.EnvelopeIDs) > h.maxBatch {
		relay.RespondWithErrorResponse(w, r,
			relay.NewMalformedRequestError(
				fmt.Sprintf("at most %d envelope ids per ack", h.maxBatch)))
		return
	}

	acked, err := h.store.AckBatch(ctx, req.EnvelopeIDs, recipientID)
	if err != nil {
		reqLogger.Error("failed to ack envelope batch", slog.String("error", err.Error()))
		relay.RespondWithErrorResponse(w, r,
			relay.WrapStoreError(err, "failed to ack envelopes"))
		return
	}

	if len(acked) > 0 {
		reqLogger.Info("envelopes acked",
			slog.Int("count", len(acked)),
		)
	}

	relay.RespondWithJSONPayload(w, http.StatusOK, relay.AckBatchResponse{Acked: acked})
}
