package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (f *fakeExpirer) ExpireInvitesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 1, nil
}

func (f *fakeExpirer) calls() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time{}, f.cutoffs...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_SweepsUntilCancelled(t *testing.T) {
	expirer := &fakeExpirer{}
	s := New(expirer, 5*time.Millisecond, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(expirer.calls()) >= 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}

func TestScheduler_CutoffTrailsNowByResponseWindow(t *testing.T) {
	expirer := &fakeExpirer{}
	s := New(expirer, time.Minute, 48*time.Hour, testLogger())
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.tick(context.Background())

	calls := expirer.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, now.Add(-48*time.Hour), calls[0])
}

func TestScheduler_ZeroWindowDisablesSweeping(t *testing.T) {
	expirer := &fakeExpirer{}
	s := New(expirer, time.Millisecond, 0, testLogger())

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler should return immediately with a zero window")
	}
	assert.Empty(t, expirer.calls())
}
