package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/darklock/relay/internal/relay"
)

type stubHealthStore struct {
	pending int64
	err     error
}

func (s *stubHealthStore) PendingCount(context.Context) (int64, error) {
	return s.pending, s.err
}

func TestHandleLive(t *testing.T) {
	req := httptest.NewRequest("GET", "/health/live", nil)
	rr := httptest.NewRecorder()
	HandleLive(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.String() != "OK" {
		t.Errorf("got body %q, want OK", rr.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	startedAt := time.Now().Add(-90 * time.Second)

	tests := []struct {
		name       string
		store      *stubHealthStore
		wantCode   int
		wantStatus string
	}{
		{"store reachable", &stubHealthStore{pending: 7}, http.StatusOK, "ok"},
		{"store down", &stubHealthStore{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/health", nil)
			rr := httptest.NewRecorder()
			HandleHealth(tt.store, startedAt)(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d", rr.Code, tt.wantCode)
			}

			var resp relay.HealthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("got status %q, want %q", resp.Status, tt.wantStatus)
			}
			if tt.wantCode == http.StatusOK && resp.PendingEnvelopes != 7 {
				t.Errorf("got pending %d, want 7", resp.PendingEnvelopes)
			}
			if resp.UptimeSeconds < 90 {
				t.Errorf("got uptime %d, want at least 90", resp.UptimeSeconds)
			}
		})
	}
}

func TestHandleVersion(t *testing.T) {
	req := httptest.NewRequest("GET", "/version", nil)
	rr := httptest.NewRecorder()
	HandleVersion()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}

	var resp VersionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Service != "relay-server" {
		t.Errorf("got service %q, want relay-server", resp.Service)
	}
	if resp.Version == "" {
		t.Error("version is empty")
	}
}
