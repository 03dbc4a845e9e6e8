package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/darklock/relay/internal/logger"
	"github.com/darklock/relay/internal/relay"
)

// HealthStore is the slice of the envelope store the health endpoint needs.
type HealthStore interface {
	PendingCount(ctx context.Context) (int64, error)
}

// HandleLive reports process liveness only - it always succeeds while the
// HTTP server is up. Used by the orchestrator's liveness probe.
func HandleLive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// HandleHealth reports store reachability and the undelivered backlog.
// The backlog count doubles as the reachability probe: one read-only query,
// no side effects. 503 means the store is down and clients of this endpoint
// (orchestration, monitoring) should treat the instance as not ready.
func HandleHealth(store HealthStore, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(startedAt).Seconds())

		pending, err := store.PendingCount(r.Context())
		if err != nil {
			logger.ContextRequestLogger(r.Context()).Error("health check failed",
				slog.String("error", err.Error()),
			)
			relay.RespondWithJSONPayload(w, http.StatusServiceUnavailable, relay.HealthResponse{
				Status:        "unavailable",
				UptimeSeconds: uptime,
			})
			return
		}

		relay.RespondWithJSONPayload(w, http.StatusOK, relay.HealthResponse{
			Status:           "ok",
			PendingEnvelopes: pending,
			UptimeSeconds:    uptime,
		})
	}
}
