// Package deferred runs work after an HTTP response has been sent.
//
// A request collects Tasks into a Batch carried by its context; once the
// response is flushed the serving layer submits the Batch to a Queue, where a
// small pool of workers executes it. The queue is bounded and never blocks the
// submitter: when it is full the batch is dropped and reported.
//
// usage:
//
//	q := deferred.New(deferred.Options{Workers: 2, Size: 1024, Logger: logger})
//	defer q.Close()
//
//	ctx, batch := deferred.WithBatch(r.Context())
//	handler.ServeHTTP(w, r.WithContext(ctx))
//	q.Submit(batch.Tasks()...)
package deferred

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unkn0wn-root/menucache"
)

var (
	ErrQueueFull   = errors.New("deferred: queue full")
	ErrQueueClosed = errors.New("deferred: queue closed")
)

// Task is one unit of post-response work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type Options struct {
	Workers     int           // 0 => 1
	Size        int           // queued batches; 0 => 1024
	TaskTimeout time.Duration // per task; 0 => 10s
	Logger      menucache.Logger

	// OnDrop is called for every task of a batch that could not be queued.
	OnDrop func(t Task, err error)
}

type Queue struct {
	q       chan []Task
	log     menucache.Logger
	onDrop  func(Task, error)
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup
	pending sync.WaitGroup
	once    sync.Once
}

func New(opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Size <= 0 {
		opts.Size = 1024
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 10 * time.Second
	}
	q := &Queue{
		q:       make(chan []Task, opts.Size),
		log:     opts.Logger,
		onDrop:  opts.OnDrop,
		timeout: opts.TaskTimeout,
	}
	if q.log == nil {
		q.log = menucache.NopLogger{}
	}
	q.workers.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go func() {
			defer q.workers.Done()
			for batch := range q.q {
				q.runBatch(batch)
			}
		}()
	}
	return q
}

// Submit enqueues tasks as one batch without blocking. It reports false when
// the batch was dropped because the queue is full or closed.
func (q *Queue) Submit(tasks ...Task) bool {
	if len(tasks) == 0 {
		return true
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.drop(tasks, ErrQueueClosed)
		return false
	}
	q.pending.Add(1)
	select {
	case q.q <- tasks:
		return true
	default:
		q.pending.Done()
		q.drop(tasks, ErrQueueFull)
		return false
	}
}

// Wait blocks until every batch accepted so far has run.
func (q *Queue) Wait() { q.pending.Wait() }

// Close stops accepting work and waits for queued batches to finish.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.q)
		q.mu.Unlock()
		q.workers.Wait()
	})
}

func (q *Queue) runBatch(batch []Task) {
	defer q.pending.Done()
	for _, t := range batch {
		q.run(t)
	}
}

func (q *Queue) run(t Task) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("deferred task panicked", menucache.Fields{"task": t.Name, "panic": r})
		}
	}()
	start := time.Now()
	if err := t.Run(ctx); err != nil {
		q.log.Warn("deferred task failed", menucache.Fields{"task": t.Name, "err": err})
		return
	}
	q.log.Debug("deferred task done", menucache.Fields{"task": t.Name, "took": time.Since(start)})
}

func (q *Queue) drop(tasks []Task, err error) {
	for _, t := range tasks {
		q.log.Warn("deferred task dropped", menucache.Fields{"task": t.Name, "err": err})
		if q.onDrop != nil {
			q.onDrop(t, err)
		}
	}
}
