package handlers

// poll.go implements GET /envelopes: list the caller's pending envelopes.

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/darklock/relay/internal/logger"
	"github.com/darklock/relay/internal/relay"
)

// PollHandler handles GET /envelopes requests.
type PollHandler struct {
	store        relay.EnvelopeStore
	defaultLimit int32
	maxLimit     int32
}

// NewPollHandler creates a new handler for polling pending envelopes.
func NewPollHandler(store relay.EnvelopeStore, defaultLimit, maxLimit int32) *PollHandler {
	return &PollHandler{
		store:        store,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// HandlePoll returns the caller's pending envelopes, oldest first.
//
// The recipient is always the bearer token's subject - there is no
// recipient parameter, so a client cannot read another recipient's queue
// even with guessed ids. An empty queue is a 200 with an empty list, never
// an error.
func (h *PollHandler) HandlePoll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqLogger := logger.ContextRequestLogger(ctx)

	recipientID, err := callerID(r)
	if err != nil {
		relay.RespondWithErrorResponse(w, r, err)
		return
	}

	limit, err := h.parseLimit(r)
	if err != nil {
		relay.RespondWithErrorResponse(w, r, err)
		return
	}

	envelopes, err := h.store.ListPending(ctx, recipientID, limit)
	if err != nil {
		reqLogger.Error("failed to list pending envelopes", slog.String("error", err.Error()))
		relay.RespondWithErrorResponse(w, r,
			relay.WrapStoreError(err, "failed to list envelopes"))
		return
	}

	if len(envelopes) > 0 {
		reqLogger.Debug("pending envelopes delivered",
			slog.Int("count", len(envelopes)),
		)
	}

	relay.RespondWithJSONPayload(w, http.StatusOK, relay.PollResponse{
		Envelopes: envelopes,
		Count:     len(envelopes),
	})
}

func (h *PollHandler) parseLimit(r *http.Request) (int32, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.defaultLimit, nil
	}

	limit, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || limit < 1 {
		return 0, relay.NewMalformedRequestError("limit must be a positive integer")
	}

	if int32(limit) > h.maxLimit {
		return h.maxLimit, nil
	}
	return int32(limit), nil
}
