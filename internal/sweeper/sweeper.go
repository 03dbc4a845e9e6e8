// Package sweeper bounds envelope storage growth. It runs outside the
// request path: a periodic job deletes acked envelopes older than the
// retention TTL, then any envelope older than twice the TTL regardless of
// delivery state.
//
// Both deletes are idempotent and commutative, so overlapping runs - or two
// relay instances sweeping the same database - only ever delete rows matching
// the same predicate. No coordination is needed.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store is the slice of the envelope store the sweeper needs.
type Store interface {
	PurgeAcked(ctx context.Context, olderThan time.Time) (int64, error)
	PurgeAll(ctx context.Context, olderThan time.Time) (int64, error)
}

// Config holds retention configuration.
type Config struct {
	// TTL is the retention window. Acked envelopes are purged after TTL;
	// all envelopes are purged after 2×TTL.
	TTL time.Duration

	// Interval is how often to sweep. Default is 1 hour.
	Interval time.Duration

	// Logger for sweep events.
	Logger *slog.Logger
}

// Sweeper runs the retention sweep on a fixed interval and once at startup.
type Sweeper struct {
	store  Store
	config Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a Sweeper.
func New(store Store, cfg Config) *Sweeper {
	if cfg.Interval == 0 {
		cfg.Interval = 1 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Sweeper{
		store:  store,
		config: cfg,
		logger: cfg.Logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins background sweeps, including one immediate run.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.run(ctx)
}

// Stop halts background sweeps and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run immediately on start
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Result contains the outcome of a single sweep.
type Result struct {
	AckedPurged   int64
	ExpiredPurged int64
	Errors        int
	Duration      time.Duration
}

// RunOnce performs a single sweep. Failures are logged and isolated per
// phase: a failed acked-purge does not prevent the expiry purge, and neither
// failure propagates - the next scheduled run retries.
func (s *Sweeper) RunOnce(ctx context.Context) Result {
	start := s.now()
	result := Result{}

	s.logger.Debug("starting retention sweep")

	ackedCutoff := start.Add(-s.config.TTL)
	count, err := s.store.PurgeAcked(ctx, ackedCutoff)
	if err != nil {
		s.logger.Error("failed to purge acked envelopes",
			slog.String("error", err.Error()),
		)
		result.Errors++
	} else {
		result.AckedPurged = count
	}

	expiredCutoff := start.Add(-2 * s.config.TTL)
	count, err = s.store.PurgeAll(ctx, expiredCutoff)
	if err != nil {
		s.logger.Error("failed to purge expired envelopes",
			slog.String("error", err.Error()),
		)
		result.Errors++
	} else {
		result.ExpiredPurged = count
	}

	result.Duration = s.now().Sub(start)

	if result.AckedPurged > 0 || result.ExpiredPurged > 0 {
		s.logger.Info("retention sweep complete",
			slog.Int64("acked_purged", result.AckedPurged),
			slog.Int64("expired_purged", result.ExpiredPurged),
			slog.Duration("duration", result.Duration),
		)
	} else {
		s.logger.Debug("retention sweep complete, nothing to purge")
	}

	return result
}
