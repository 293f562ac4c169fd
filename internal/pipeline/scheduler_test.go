package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/couchcryptid/seismic-data-etl/internal/observability"
	"github.com/couchcryptid/seismic-data-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	mu    sync.Mutex
	errs  []error
	calls chan int
	limit []int
}

func newScriptedRunner(errs ...error) *scriptedRunner {
	return &scriptedRunner{errs: errs, calls: make(chan int, 16)}
}

func (r *scriptedRunner) Ingest(_ context.Context, maxRecords int) (pipeline.IngestResult, error) {
	r.mu.Lock()
	r.limit = append(r.limit, maxRecords)
	n := len(r.limit)
	var err error
	if n <= len(r.errs) {
		err = r.errs[n-1]
	}
	r.mu.Unlock()

	r.calls <- n
	return pipeline.IngestResult{}, err
}

func waitCall(t *testing.T, r *scriptedRunner, want int) {
	t.Helper()
	select {
	case n := <-r.calls:
		require.Equal(t, want, n)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for ingest call %d", want)
	}
}

func startScheduler(t *testing.T, runner *scriptedRunner, interval time.Duration) (*clockwork.FakeClock, *observability.Metrics, context.CancelFunc, <-chan error) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	metrics := observability.NewMetricsForTesting()
	sched := pipeline.NewScheduler(runner, interval, 7, clock, discardLogger(), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()
	t.Cleanup(cancel)
	return clock, metrics, cancel, done
}

func TestScheduler_RunsImmediatelyThenOnInterval(t *testing.T) {
	runner := newScriptedRunner()
	clock, metrics, cancel, done := startScheduler(t, runner, time.Minute)

	waitCall(t, runner, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SchedulerRunning), 0)

	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	waitCall(t, runner, 2)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	waitCall(t, runner, 3)

	cancel()
	require.NoError(t, <-done)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SchedulerRunning), 0)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, []int{7, 7, 7}, runner.limit)
}

func TestScheduler_BacksOffAfterFailure(t *testing.T) {
	fail := &domain.FetchError{Err: errors.New("feed down")}
	runner := newScriptedRunner(fail, fail)
	clock, _, cancel, done := startScheduler(t, runner, time.Hour)

	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()

	waitCall(t, runner, 1)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(200 * time.Millisecond)
	waitCall(t, runner, 2)

	// Second failure doubles the wait.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(200 * time.Millisecond)
	select {
	case n := <-runner.calls:
		t.Fatalf("unexpected ingest call %d before backoff elapsed", n)
	case <-time.After(50 * time.Millisecond):
	}
	clock.Advance(200 * time.Millisecond)
	waitCall(t, runner, 3)

	// Success resets to the full interval.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(30 * time.Minute)
	select {
	case n := <-runner.calls:
		t.Fatalf("unexpected ingest call %d before interval elapsed", n)
	case <-time.After(50 * time.Millisecond):
	}
	clock.Advance(30 * time.Minute)
	waitCall(t, runner, 4)

	cancel()
	require.NoError(t, <-done)
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	runner := newScriptedRunner()
	clock, _, cancel, done := startScheduler(t, runner, time.Minute)

	waitCall(t, runner, 1)
	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
