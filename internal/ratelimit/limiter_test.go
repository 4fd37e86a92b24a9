package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tenderly-care/diagnosis-api/pkg/errors"
)

// fakeStore keeps timestamps in memory and can be forced to fail.
type fakeStore struct {
	entries map[string][]time.Time
	failing bool
}

var errStoreDown = errors.New("store down")

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string][]time.Time)}
}

func (s *fakeStore) PurgeBefore(_ context.Context, key string, cutoff time.Time) error {
	if s.failing {
		return errStoreDown
	}
	kept := s.entries[key][:0]
	for _, ts := range s.entries[key] {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	s.entries[key] = kept
	return nil
}

func (s *fakeStore) Count(_ context.Context, key string) (int64, error) {
	if s.failing {
		return 0, errStoreDown
	}
	return int64(len(s.entries[key])), nil
}

func (s *fakeStore) Oldest(_ context.Context, key string) (time.Time, error) {
	if s.failing {
		return time.Time{}, errStoreDown
	}
	var oldest time.Time
	for _, ts := range s.entries[key] {
		if oldest.IsZero() || ts.Before(oldest) {
			oldest = ts
		}
	}
	return oldest, nil
}

func (s *fakeStore) Add(_ context.Context, key string, ts time.Time) error {
	if s.failing {
		return errStoreDown
	}
	s.entries[key] = append(s.entries[key], ts)
	return nil
}

func (s *fakeStore) Expire(_ context.Context, _ string, _ time.Duration) error {
	if s.failing {
		return errStoreDown
	}
	return nil
}

func (s *fakeStore) Ping(_ context.Context) error {
	if s.failing {
		return errStoreDown
	}
	return nil
}

func newTestLimiter(store Store, limit int, window time.Duration) (*Limiter, *time.Time) {
	now := time.Date(2025, 7, 21, 6, 0, 0, 0, time.UTC)
	l := NewLimiter(store, limit, window, zerolog.Nop(), nil).
		WithClock(func() time.Time { return now })
	return l, &now
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	store := newFakeStore()
	l, _ := newTestLimiter(store, 3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.NoError(t, l.Check(ctx, "patient-1"), "request %d should be allowed", i+1)
	}

	err := l.Check(ctx, "patient-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindRateLimited))
}

func TestLimiterRejectionCarriesRetryWindow(t *testing.T) {
	store := newFakeStore()
	l, _ := newTestLimiter(store, 1, time.Hour)
	ctx := context.Background()

	require.NoError(t, l.Check(ctx, "patient-1"))
	err := l.Check(ctx, "patient-1")
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, 1, appErr.Limit)
	assert.Equal(t, time.Hour, appErr.Window)
}

func TestLimiterIdentifiersAreIndependent(t *testing.T) {
	store := newFakeStore()
	l, _ := newTestLimiter(store, 1, time.Hour)
	ctx := context.Background()

	require.NoError(t, l.Check(ctx, "patient-1"))
	require.Error(t, l.Check(ctx, "patient-1"))
	assert.NoError(t, l.Check(ctx, "patient-2"))
}

func TestLimiterWindowSlides(t *testing.T) {
	store := newFakeStore()
	l, now := newTestLimiter(store, 2, time.Hour)
	ctx := context.Background()

	require.NoError(t, l.Check(ctx, "patient-1"))
	require.NoError(t, l.Check(ctx, "patient-1"))
	require.Error(t, l.Check(ctx, "patient-1"))

	// Old entries fall out of the window and capacity returns.
	*now = now.Add(time.Hour + time.Minute)
	assert.NoError(t, l.Check(ctx, "patient-1"))
}

func TestLimiterFailsOpenOnStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.failing = true
	l, _ := newTestLimiter(store, 1, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.NoError(t, l.Check(ctx, "patient-1"))
	}
}

func TestLimiterInfo(t *testing.T) {
	store := newFakeStore()
	l, now := newTestLimiter(store, 10, time.Hour)
	ctx := context.Background()

	require.NoError(t, l.Check(ctx, "patient-1"))
	require.NoError(t, l.Check(ctx, "patient-1"))

	info := l.Info(ctx, "patient-1")
	assert.Equal(t, 10, info.Limit)
	assert.Equal(t, 3600, info.Window)
	assert.Equal(t, 8, info.Remaining)
	assert.Equal(t, now.Add(time.Hour).Unix(), info.ResetTime)
}

func TestLimiterInfoResetTracksOldestEntry(t *testing.T) {
	store := newFakeStore()
	l, now := newTestLimiter(store, 10, time.Hour)
	ctx := context.Background()

	first := *now
	require.NoError(t, l.Check(ctx, "patient-1"))

	// Half an hour later the slot from the first request frees in another
	// half hour, not a full window from now.
	*now = now.Add(30 * time.Minute)
	require.NoError(t, l.Check(ctx, "patient-1"))

	info := l.Info(ctx, "patient-1")
	assert.Equal(t, first.Add(time.Hour).Unix(), info.ResetTime)
}

func TestLimiterInfoDefaultsWhenStoreDown(t *testing.T) {
	store := newFakeStore()
	l, _ := newTestLimiter(store, 10, time.Hour)
	ctx := context.Background()

	require.NoError(t, l.Check(ctx, "patient-1"))
	store.failing = true

	info := l.Info(ctx, "patient-1")
	assert.Equal(t, 10, info.Remaining, "full quota reported when state is unknown")
}

func TestLimiterRemainingNeverNegative(t *testing.T) {
	store := newFakeStore()
	l, now := newTestLimiter(store, 1, time.Hour)
	ctx := context.Background()

	// More entries than the limit, as after a limit reconfiguration.
	store.entries["rate_limit:patient-1"] = []time.Time{*now, *now, *now}

	info := l.Info(ctx, "patient-1")
	assert.Equal(t, 0, info.Remaining)
}
