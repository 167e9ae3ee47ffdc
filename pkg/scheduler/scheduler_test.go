package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingExpirer struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
	ran   chan struct{}
}

func newRecordingExpirer() *recordingExpirer {
	return &recordingExpirer{ran: make(chan struct{}, 16)}
}

func (e *recordingExpirer) ExpirePeers(_ context.Context, now time.Time) (int, error) {
	e.mu.Lock()
	e.calls = append(e.calls, now)
	e.mu.Unlock()

	select {
	case e.ran <- struct{}{}:
	default:
	}
	return 1, e.err
}

func (e *recordingExpirer) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func waitForRun(t *testing.T, e *recordingExpirer) {
	t.Helper()

	select {
	case <-e.ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for expiry run")
	}
}

func TestSchedulerRunsImmediatelyAndPeriodically(t *testing.T) {
	expirer := newRecordingExpirer()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	s := newScheduler(expirer, 10*time.Millisecond, func() time.Time { return fixed })
	defer s.Close()

	waitForRun(t, expirer)
	waitForRun(t, expirer)

	expirer.mu.Lock()
	defer expirer.mu.Unlock()
	if !expirer.calls[0].Equal(fixed) {
		t.Fatalf("expected scheduler to pass the current time, got %s", expirer.calls[0])
	}
}

func TestSchedulerContinuesAfterError(t *testing.T) {
	expirer := newRecordingExpirer()
	expirer.err = errors.New("device busy")

	s := NewScheduler(expirer, 10*time.Millisecond)
	defer s.Close()

	waitForRun(t, expirer)
	waitForRun(t, expirer)
}

func TestSchedulerCloseStopsRuns(t *testing.T) {
	expirer := newRecordingExpirer()

	s := NewScheduler(expirer, time.Hour)
	waitForRun(t, expirer)

	s.Close()
	s.Close()

	if got := expirer.callCount(); got != 1 {
		t.Fatalf("expected exactly one run, got %d", got)
	}
}
