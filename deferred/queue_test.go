package deferred

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsBatchesInOrder(t *testing.T) {
	q := New(Options{Workers: 1, Size: 4})
	defer q.Close()

	var mu sync.Mutex
	var got []string
	task := func(name string) Task {
		return Task{Name: name, Run: func(context.Context) error {
			mu.Lock()
			got = append(got, name)
			mu.Unlock()
			return nil
		}}
	}

	require.True(t, q.Submit(task("a"), task("b")))
	require.True(t, q.Submit(task("c")))
	q.Wait()

	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestQueueFullDropsWithoutBlocking(t *testing.T) {
	var dropped []string
	q := New(Options{Workers: 1, Size: 1, OnDrop: func(t Task, err error) {
		if errors.Is(err, ErrQueueFull) {
			dropped = append(dropped, t.Name)
		}
	}})

	release := make(chan struct{})
	started := make(chan struct{})
	block := Task{Name: "block", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}
	noop := func(n string) Task { return Task{Name: n, Run: func(context.Context) error { return nil }} }

	require.True(t, q.Submit(block))
	<-started
	require.True(t, q.Submit(noop("queued")))

	done := make(chan bool)
	go func() { done <- q.Submit(noop("overflow")) }()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}
	assert.Equal(t, []string{"overflow"}, dropped)

	close(release)
	q.Close()
}

func TestQueueSurvivesFailingAndPanickingTasks(t *testing.T) {
	q := New(Options{Workers: 2})
	var ran atomic.Int32

	q.Submit(
		Task{Name: "fail", Run: func(context.Context) error { return errors.New("boom") }},
		Task{Name: "panic", Run: func(context.Context) error { panic("bad") }},
		Task{Name: "ok", Run: func(context.Context) error { ran.Add(1); return nil }},
	)
	q.Wait()
	assert.EqualValues(t, 1, ran.Load())
	q.Close()
}

func TestQueueTaskGetsDeadline(t *testing.T) {
	q := New(Options{TaskTimeout: time.Minute})
	defer q.Close()

	var hasDeadline bool
	q.Submit(Task{Name: "deadline", Run: func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}})
	q.Wait()
	assert.True(t, hasDeadline)
}

func TestSubmitAfterCloseIsRejected(t *testing.T) {
	var reason error
	q := New(Options{OnDrop: func(_ Task, err error) { reason = err }})
	q.Close()
	q.Close()

	ok := q.Submit(Task{Name: "late", Run: func(context.Context) error { return nil }})
	assert.False(t, ok)
	assert.ErrorIs(t, reason, ErrQueueClosed)
	assert.True(t, q.Submit())
}

func TestBatchOnContext(t *testing.T) {
	noop := Task{Name: "n", Run: func(context.Context) error { return nil }}

	assert.False(t, Defer(context.Background(), noop))

	ctx, b := WithBatch(context.Background())
	assert.True(t, Defer(ctx, noop))
	assert.True(t, Defer(ctx, noop))

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, 2, b.Len())
	assert.Len(t, b.Tasks(), 2)
}
