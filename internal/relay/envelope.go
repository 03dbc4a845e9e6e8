package relay

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Envelope is the relay's unit of storage and delivery: one opaque ciphertext
// blob plus the routing metadata the relay needs to deliver and retire it.
type Envelope struct {
	// ID is server-assigned and opaque. Clients use it only for ack/dedup.
	ID uuid.UUID `json:"id"`

	// RecipientID is the routing tag supplied by the sender. The relay never
	// validates it against the identity service.
	RecipientID string `json:"recipient_id"`

	// SenderID is carried for client-side display only.
	SenderID *string `json:"sender_id,omitempty"`

	// Ciphertext is the opaque base64 payload.
	Ciphertext string `json:"ciphertext"`

	// CreatedAt is server-assigned and immutable.
	CreatedAt time.Time `json:"created_at"`

	// AckedAt is set exactly once by the recipient's ack. Nil means pending.
	AckedAt *time.Time `json:"acked_at,omitempty"`
}

// EnvelopeStore is the persistence contract for envelopes.
//
// Implementations must make every method a single atomic statement: Ack in
// particular is a conditional update, so concurrent identical acks converge
// to exactly one newly-acked winner.
type EnvelopeStore interface {
	// Put stores one envelope and returns it with a fresh id and created_at.
	Put(ctx context.Context, recipientID string, senderID *string, ciphertext string) (Envelope, error)

	// PutFanout stores one independently ack-able envelope per recipient.
	PutFanout(ctx context.Context, recipientIDs []string, senderID *string, ciphertext string) ([]Envelope, error)

	// ListPending returns unacked envelopes for the recipient, oldest first,
	// capped at limit.
	ListPending(ctx context.Context, recipientID string, limit int32) ([]Envelope, error)

	// Ack marks the envelope delivered. It returns true only when this call
	// caused the pending→acked transition; a repeat ack or a recipient
	// mismatch returns false with no error.
	Ack(ctx context.Context, id uuid.UUID, recipientID string) (bool, error)

	// AckBatch acks several envelopes for one recipient and returns the ids
	// that were newly acked. Unknown, foreign, and already-acked ids are
	// silently skipped.
	AckBatch(ctx context.Context, ids []uuid.UUID, recipientID string) ([]uuid.UUID, error)

	// Exists reports whether an envelope with this id is addressed to this
	// recipient, acked or not. Used to tell a repeat ack (acked: false) from
	// an unknown or foreign id (not found).
	Exists(ctx context.Context, id uuid.UUID, recipientID string) (bool, error)

	// PurgeAcked deletes acked envelopes created before the cutoff.
	PurgeAcked(ctx context.Context, olderThan time.Time) (int64, error)

	// PurgeAll deletes all envelopes created before the cutoff, acked or not.
	PurgeAll(ctx context.Context, olderThan time.Time) (int64, error)

	// PendingCount returns the number of unacked envelopes across all recipients.
	PendingCount(ctx context.Context) (int64, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
