package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/darklock/relay/internal/relay"
)

const (
	testMaxCiphertext = 1024
	testMaxFanout     = 5
)

func doPush(t *testing.T, store relay.EnvelopeStore, body string) *httptest.ResponseRecorder {
	t.Helper()

	handler := NewPushHandler(store, testMaxCiphertext, testMaxFanout)

	req := httptest.NewRequest("POST", "/envelopes", bytes.NewReader([]byte(body)))
	req = asCaller(req, "u_sender")
	rr := httptest.NewRecorder()
	handler.HandlePush(rr, req)
	return rr
}

func TestPushSingleRecipient(t *testing.T) {
	store := newFakeStore()

	rr := doPush(t, store, `{"recipient_id":"u_42","sender_id":"u_7","ciphertext":"QUJD"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp relay.PushResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID == nil {
		t.Fatal("response has no envelope id")
	}
	if resp.CreatedAt.IsZero() {
		t.Error("response has no created_at")
	}

	stored, ok := store.envelopes[*resp.ID]
	if !ok {
		t.Fatal("envelope not stored")
	}
	if stored.RecipientID != "u_42" {
		t.Errorf("got recipient %q, want u_42", stored.RecipientID)
	}
	if stored.SenderID == nil || *stored.SenderID != "u_7" {
		t.Errorf("got sender %v, want u_7", stored.SenderID)
	}
	if stored.Ciphertext != "QUJD" {
		t.Errorf("got ciphertext %q, want QUJD", stored.Ciphertext)
	}
	if stored.AckedAt != nil {
		t.Error("new envelope must be pending")
	}
}

func TestPushFanout(t *testing.T) {
	store := newFakeStore()

	rr := doPush(t, store, `{"recipient_ids":["u_1","u_2","u_3"],"ciphertext":"QUJD"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp relay.PushResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.IDs) != 3 {
		t.Fatalf("got %d ids, want 3", len(resp.IDs))
	}

	// Each recipient got an independently ack-able row.
	seen := make(map[string]bool)
	for _, id := range resp.IDs {
		envelope, ok := store.envelopes[id]
		if !ok {
			t.Fatalf("envelope %s not stored", id)
		}
		if seen[envelope.RecipientID] {
			t.Errorf("recipient %s stored twice", envelope.RecipientID)
		}
		seen[envelope.RecipientID] = true
	}
	for _, want := range []string{"u_1", "u_2", "u_3"} {
		if !seen[want] {
			t.Errorf("no envelope stored for %s", want)
		}
	}

	// Acking one copy leaves the others pending.
	acked, err := store.Ack(context.Background(), resp.IDs[0], "u_1")
	if err != nil || !acked {
		t.Fatalf("ack of first copy failed: acked=%v err=%v", acked, err)
	}
	count, _ := store.PendingCount(context.Background())
	if count != 2 {
		t.Errorf("got %d pending after one ack, want 2", count)
	}
}

func TestPushValidation(t *testing.T) {
	oversized := strings.Repeat("A", testMaxCiphertext+1)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  relay.ErrorCode
	}{
		{
			name:     "no recipient",
			body:     `{"ciphertext":"QUJD"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  relay.ErrCodeInvalidRecipient,
		},
		{
			name:     "both recipient forms",
			body:     `{"recipient_id":"u_1","recipient_ids":["u_2"],"ciphertext":"QUJD"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  relay.ErrCodeMalformedRequest,
		},
		{
			name:     "empty id in fanout",
			body:     `{"recipient_ids":["u_1",""],"ciphertext":"QUJD"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  relay.ErrCodeInvalidRecipient,
		},
		{
			name:     "fanout over cap",
			body:     `{"recipient_ids":["u_1","u_2","u_3","u_4","u_5","u_6"],"ciphertext":"QUJD"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  relay.ErrCodeMalformedRequest,
		},
		{
			name:     "missing ciphertext",
			body:     `{"recipient_id":"u_1"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  relay.ErrCodeMalformedRequest,
		},
		{
			name:     "oversized ciphertext",
			body:     `{"recipient_id":"u_1","ciphertext":"` + oversized + `"}`,
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  relay.ErrCodePayloadTooLarge,
		},
		{
			name:     "invalid json",
			body:     `{"recipient_id":`,
			wantCode: http.StatusBadRequest,
			wantErr:  relay.ErrCodeMalformedRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			rr := doPush(t, store, tt.body)

			if rr.Code != tt.wantCode {
				t.Errorf("got status %d, want %d: %s", rr.Code, tt.wantCode, rr.Body.String())
			}

			var errResp relay.ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if errResp.Code != tt.wantErr {
				t.Errorf("got error code %q, want %q", errResp.Code, tt.wantErr)
			}

			// Rejected pushes must never persist anything.
			if len(store.envelopes) != 0 {
				t.Errorf("rejected push stored %d envelopes", len(store.envelopes))
			}
		})
	}
}

func TestPushStoreUnavailable(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("connection refused")

	rr := doPush(t, store, `{"recipient_id":"u_1","ciphertext":"QUJD"}`)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
