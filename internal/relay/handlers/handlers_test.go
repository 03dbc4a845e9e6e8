package handlers

// Shared in-memory EnvelopeStore fake for handler tests. Behavior mirrors the
// Postgres store: conditional acks, oldest-first listing, created_at cutoffs.

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darklock/relay/internal/auth"
	"github.com/darklock/relay/internal/relay"
)

type fakeStore struct {
	mu        sync.Mutex
	envelopes map[uuid.UUID]relay.Envelope
	now       time.Time

	// forced errors, one per operation
	putErr  error
	listErr error
	ackErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		envelopes: make(map[uuid.UUID]relay.Envelope),
		now:       time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) Put(_ context.Context, recipientID string, senderID *string, ciphertext string) (relay.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.putErr != nil {
		return relay.Envelope{}, f.putErr
	}

	f.now = f.now.Add(time.Millisecond)
	envelope := relay.Envelope{
		ID:          uuid.New(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Ciphertext:  ciphertext,
		CreatedAt:   f.now,
	}
	f.envelopes[envelope.ID] = envelope
	return envelope, nil
}

func (f *fakeStore) PutFanout(ctx context.Context, recipientIDs []string, senderID *string, ciphertext string) ([]relay.Envelope, error) {
	envelopes := make([]relay.Envelope, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		envelope, err := f.Put(ctx, recipientID, senderID, ciphertext)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes, nil
}

func (f *fakeStore) ListPending(_ context.Context, recipientID string, limit int32) ([]relay.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	pending := make([]relay.Envelope, 0)
	for _, envelope := range f.envelopes {
		if envelope.RecipientID == recipientID && envelope.AckedAt == nil {
			pending = append(pending, envelope)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if int32(len(pending)) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (f *fakeStore) Ack(_ context.Context, id uuid.UUID, recipientID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ackErr != nil {
		return false, f.ackErr
	}

	envelope, ok := f.envelopes[id]
	if !ok || envelope.RecipientID != recipientID || envelope.AckedAt != nil {
		return false, nil
	}
	ackedAt := f.now
	envelope.AckedAt = &ackedAt
	f.envelopes[id] = envelope
	return true, nil
}

func (f *fakeStore) AckBatch(ctx context.Context, ids []uuid.UUID, recipientID string) ([]uuid.UUID, error) {
	acked := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		ok, err := f.Ack(ctx, id, recipientID)
		if err != nil {
			return nil, err
		}
		if ok {
			acked = append(acked, id)
		}
	}
	return acked, nil
}

func (f *fakeStore) Exists(_ context.Context, id uuid.UUID, recipientID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	envelope, ok := f.envelopes[id]
	return ok && envelope.RecipientID == recipientID, nil
}

func (f *fakeStore) PurgeAcked(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var purged int64
	for id, envelope := range f.envelopes {
		if envelope.AckedAt != nil && envelope.CreatedAt.Before(olderThan) {
			delete(f.envelopes, id)
			purged++
		}
	}
	return purged, nil
}

func (f *fakeStore) PurgeAll(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var purged int64
	for id, envelope := range f.envelopes {
		if envelope.CreatedAt.Before(olderThan) {
			delete(f.envelopes, id)
			purged++
		}
	}
	return purged, nil
}

func (f *fakeStore) PendingCount(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, envelope := range f.envelopes {
		if envelope.AckedAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) Ping(_ context.Context) error { return nil }

var _ relay.EnvelopeStore = (*fakeStore)(nil)

// asCaller stamps the request context with the caller identity RequireAuth
// would have installed.
func asCaller(r *http.Request, callerID string) *http.Request {
	return r.WithContext(auth.ContextWithCallerID(r.Context(), callerID))
}
