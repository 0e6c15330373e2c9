package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesEnqueuedJobs(t *testing.T) {
	done := make(chan string, 3)
	q := NewQueue("exports", func(ctx context.Context, job Job) error {
		done <- job.Payload.(string)
		return nil
	}, QueueConfig{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	for _, id := range []string{"job1", "job2", "job3"} {
		require.NoError(t, q.Enqueue(Job{ID: id, Type: "incident-log-export", Payload: id}))
	}

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for job %d of 3", i+1)
		}
	}
	assert.Len(t, seen, 3)
}

func TestQueueRetriesFailedJob(t *testing.T) {
	var mu sync.Mutex
	attempts := make([]int, 0, 2)
	done := make(chan struct{})

	q := NewQueue("exports", func(ctx context.Context, job Job) error {
		mu.Lock()
		attempts = append(attempts, job.Attempt)
		mu.Unlock()
		if job.Attempt == 0 {
			return errors.New("render failed")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job1", Type: "incident-log-export", Payload: "job1"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, attempts, 2)
	assert.Equal(t, 0, attempts[0])
	assert.Equal(t, 1, attempts[1])
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	calls := make(chan int, 8)
	q := NewQueue("exports", func(ctx context.Context, job Job) error {
		calls <- job.Attempt
		return errors.New("render failed")
	}, QueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job1", Payload: "job1"}))

	// First attempt plus one retry, then the job is dropped.
	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("missing attempt %d", i+1)
		}
	}
	select {
	case attempt := <-calls:
		t.Fatalf("job ran again after retries were exhausted (attempt %d)", attempt)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("exports", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "job1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}

func TestStopWaitsForWorkersToExit(t *testing.T) {
	started := make(chan struct{})
	q := NewQueue("exports", func(ctx context.Context, job Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, QueueConfig{Workers: 1})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "job1"}))
	<-started

	finished := make(chan struct{})
	go func() {
		q.Stop()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after workers exited")
	}
}
