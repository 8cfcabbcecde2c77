package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForStatus(t *testing.T, store RunStore, id string, status RunStatus) *Run {
	t.Helper()
	var run *Run
	require.Eventually(t, func() bool {
		r, err := store.Retrieve(context.Background(), id)
		if err != nil {
			return false
		}
		run = r
		return r.Status == status
	}, 2*time.Second, 10*time.Millisecond)
	return run
}

func TestQueueMarksRunExecutingWhileHandling(t *testing.T) {
	store := NewMemoryRunStore()
	seen := make(chan bool, 1)
	var q *Queue
	q = NewQueue("test", func(ctx context.Context, job Job) error {
		run, err := q.Runs().Retrieve(ctx, job.ID)
		seen <- err == nil && run.IsExecuting()
		return nil
	}, QueueConfig{Runs: store})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Type: "notify.nomination"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	select {
	case executing := <-seen:
		assert.True(t, executing)
	case <-time.After(2 * time.Second):
		t.Fatal("handler not invoked")
	}
	waitForStatus(t, store, id, RunCompleted)
}

func TestQueueSkipsCancelledRun(t *testing.T) {
	store := NewMemoryRunStore()
	var calls int32
	release := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if job.ID == "blocker" {
			<-release
			return nil
		}
		atomic.AddInt32(&calls, 1)
		return nil
	}, QueueConfig{Workers: 1, Runs: store})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{ID: "blocker"})
	require.NoError(t, err)
	waitForStatus(t, store, "blocker", RunExecuting)

	_, err = q.Enqueue(Job{ID: "victim"})
	require.NoError(t, err)
	_, err = Cancel(context.Background(), store, "victim")
	require.NoError(t, err)
	close(release)

	waitForStatus(t, store, "blocker", RunCompleted)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	run, err := store.Retrieve(context.Background(), "victim")
	require.NoError(t, err)
	assert.Equal(t, RunCancelled, run.Status)
}

func TestQueueRetriesThenFails(t *testing.T) {
	store := NewMemoryRunStore()
	var calls int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("smtp down")
	}, QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond, Runs: store})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Type: "notify.activity"})
	require.NoError(t, err)

	run := waitForStatus(t, store, id, RunFailed)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "smtp down", run.Error)
	assert.Equal(t, 3, run.Attempt)
}

func TestEnqueueRequiresStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	_, err := q.Enqueue(Job{})
	assert.Error(t, err)
}

func TestQueueCancelDuringHandlingIsFinal(t *testing.T) {
	store := NewMemoryRunStore()
	var sends int32
	started := make(chan struct{})
	release := make(chan struct{})
	var q *Queue
	q = NewQueue("test", func(ctx context.Context, job Job) error {
		close(started)
		<-release
		run, err := q.Runs().Retrieve(ctx, job.ID)
		if err == nil && run.IsExecuting() {
			atomic.AddInt32(&sends, 1)
		}
		return nil
	}, QueueConfig{Workers: 1, Runs: store})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Type: "notify.unassigned"})
	require.NoError(t, err)
	<-started

	_, err = Cancel(context.Background(), store, id)
	require.NoError(t, err)
	close(release)

	time.Sleep(50 * time.Millisecond)
	run, err := store.Retrieve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, RunCancelled, run.Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&sends))
}

func TestQueueRunIsQueuedWhileWaitingForRetry(t *testing.T) {
	store := NewMemoryRunStore()
	var calls int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("provider timeout")
		}
		return nil
	}, QueueConfig{MaxRetries: 2, RetryDelay: 300 * time.Millisecond, Runs: store})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Type: "notify.request"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		run, err := store.Retrieve(context.Background(), id)
		return err == nil && run.Status == RunQueued && run.Error == "provider timeout"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	waitForStatus(t, store, id, RunCompleted)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
