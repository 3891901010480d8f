package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	mu      sync.Mutex
	calls   []time.Duration
	deleted int
	err     error
}

func (f *fakeCleaner) CleanupTemporary(_ context.Context, maxAge time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, maxAge)
	return f.deleted, f.err
}

func (f *fakeCleaner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestImageCleanupScheduler_RunsOnEveryTick(t *testing.T) {
	cleaner := &fakeCleaner{deleted: 2}
	mock := clock.NewMock()
	s := NewImageCleanupScheduler(cleaner, mock, time.Hour, 24*time.Hour, nil)

	stop := s.Start(context.Background())
	defer stop()

	require.Eventually(t, func() bool { return cleaner.count() == 1 }, time.Second, 5*time.Millisecond, "initial run")

	mock.Add(time.Hour)
	require.Eventually(t, func() bool { return cleaner.count() == 2 }, time.Second, 5*time.Millisecond)

	mock.Add(30 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, cleaner.count(), "no run before the interval elapses")

	mock.Add(30 * time.Minute)
	require.Eventually(t, func() bool { return cleaner.count() == 3 }, time.Second, 5*time.Millisecond)

	cleaner.mu.Lock()
	for _, age := range cleaner.calls {
		assert.Equal(t, 24*time.Hour, age)
	}
	cleaner.mu.Unlock()
}

func TestImageCleanupScheduler_StopEndsLoop(t *testing.T) {
	cleaner := &fakeCleaner{}
	mock := clock.NewMock()
	s := NewImageCleanupScheduler(cleaner, mock, time.Minute, time.Hour, nil)

	stop := s.Start(context.Background())
	require.Eventually(t, func() bool { return cleaner.count() == 1 }, time.Second, 5*time.Millisecond)
	stop()

	mock.Add(10 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, cleaner.count())
}

func TestImageCleanupScheduler_RunOnceReportsFailures(t *testing.T) {
	cleaner := &fakeCleaner{deleted: 1, err: errors.New("bucket unavailable")}
	s := NewImageCleanupScheduler(cleaner, clock.NewMock(), 0, time.Hour, nil)

	assert.Equal(t, time.Hour, s.interval, "non-positive interval falls back to an hour")
	assert.Equal(t, 1, s.RunOnce(context.Background()))
}
