package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu sync.Mutex

	ackedCutoffs   []time.Time
	expiredCutoffs []time.Time

	ackedPurged   int64
	expiredPurged int64

	ackedErr   error
	expiredErr error
}

func (f *fakeStore) PurgeAcked(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ackedErr != nil {
		return 0, f.ackedErr
	}
	f.ackedCutoffs = append(f.ackedCutoffs, olderThan)
	return f.ackedPurged, nil
}

func (f *fakeStore) PurgeAll(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.expiredErr != nil {
		return 0, f.expiredErr
	}
	f.expiredCutoffs = append(f.expiredCutoffs, olderThan)
	return f.expiredPurged, nil
}

func newTestSweeper(store *fakeStore, ttl time.Duration) *Sweeper {
	return New(store, Config{
		TTL:      ttl,
		Interval: time.Hour,
		Logger:   slog.New(slog.DiscardHandler),
	})
}

func TestRunOnceCutoffs(t *testing.T) {
	store := &fakeStore{ackedPurged: 3, expiredPurged: 1}

	ttl := 30 * 24 * time.Hour
	sweeper := newTestSweeper(store, ttl)

	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return now }

	result := sweeper.RunOnce(context.Background())

	require.Equal(t, int64(3), result.AckedPurged)
	require.Equal(t, int64(1), result.ExpiredPurged)
	require.Zero(t, result.Errors)

	// Acked rows go at TTL, everything else only at twice the TTL.
	require.Len(t, store.ackedCutoffs, 1)
	require.Equal(t, now.Add(-ttl), store.ackedCutoffs[0])
	require.Len(t, store.expiredCutoffs, 1)
	require.Equal(t, now.Add(-2*ttl), store.expiredCutoffs[0])
}

func TestRunOnceAckedFailureDoesNotSkipExpiry(t *testing.T) {
	store := &fakeStore{
		ackedErr:      errors.New("connection refused"),
		expiredPurged: 2,
	}

	sweeper := newTestSweeper(store, time.Hour)

	result := sweeper.RunOnce(context.Background())

	require.Equal(t, 1, result.Errors)
	require.Zero(t, result.AckedPurged)
	require.Equal(t, int64(2), result.ExpiredPurged)
	require.Len(t, store.expiredCutoffs, 1)
}

func TestRunOnceBothPhasesFail(t *testing.T) {
	store := &fakeStore{
		ackedErr:   errors.New("connection refused"),
		expiredErr: errors.New("connection refused"),
	}

	sweeper := newTestSweeper(store, time.Hour)

	result := sweeper.RunOnce(context.Background())

	require.Equal(t, 2, result.Errors)
	require.Zero(t, result.AckedPurged)
	require.Zero(t, result.ExpiredPurged)
}

func TestStartRunsImmediately(t *testing.T) {
	store := &fakeStore{}
	sweeper := newTestSweeper(store, time.Hour)

	sweeper.Start(context.Background())
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.ackedCutoffs) >= 1
	}, 2*time.Second, 10*time.Millisecond, "no sweep ran after Start")
}

func TestStopIsIdempotentAndBlocksRestarts(t *testing.T) {
	store := &fakeStore{}
	sweeper := newTestSweeper(store, time.Hour)

	sweeper.Start(context.Background())
	sweeper.Stop()
	sweeper.Stop()

	store.mu.Lock()
	runs := len(store.ackedCutoffs)
	store.mu.Unlock()

	// Start after Stop is a no-op.
	sweeper.Start(context.Background())
	time.Sleep(50 * time.Millisecond)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Equal(t, runs, len(store.ackedCutoffs))
}
