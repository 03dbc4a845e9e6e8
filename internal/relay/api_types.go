package relay

// api_types.go defines the request and response bodies of the relay API.

import (
	"time"

	"github.com/google/uuid"
)

// PushRequest is the body of POST /envelopes.
//
// Exactly one of RecipientID and RecipientIDs must be set. RecipientIDs fans
// the same ciphertext out to several recipients, creating one independently
// ack-able envelope per recipient (e.g. for multi-device delivery).
type PushRequest struct {
	RecipientID  string   `json:"recipient_id,omitempty"`
	RecipientIDs []string `json:"recipient_ids,omitempty"`
	SenderID     *string  `json:"sender_id,omitempty"`
	Ciphertext   string   `json:"ciphertext"`
}

// PushResponse is returned with 201 Created. ID is set for a single-recipient
// push, IDs for a fan-out push.
type PushResponse struct {
	ID        *uuid.UUID  `json:"id,omitempty"`
	IDs       []uuid.UUID `json:"ids,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// PollResponse is the body of GET /envelopes. The list is empty, never null,
// when there is nothing pending.
type PollResponse struct {
	Envelopes []Envelope `json:"envelopes"`
	Count     int        `json:"count"`
}

// AckResponse is the body of POST /envelopes/{id}/ack. Acked reports whether
// this call caused the pending→acked transition; a repeat ack returns false.
type AckResponse struct {
	Acked bool `json:"acked"`
}

// AckBatchRequest is the body of POST /envelopes/ack.
type AckBatchRequest struct {
	EnvelopeIDs []uuid.UUID `json:"envelope_ids"`
}

// AckBatchResponse lists the ids that were newly acked by this call.
// Ids that were already acked, unknown, or not addressed to the caller are
// omitted without error.
type AckBatchResponse struct {
	Acked []uuid.UUID `json:"acked"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	PendingEnvelopes int64  `json:"pending_envelopes"`
	UptimeSeconds    int64  `json:"uptime"`
}
