package deferred

import (
	"context"
	"sync"
)

// Batch collects tasks while a request is being served.
type Batch struct {
	mu    sync.Mutex
	tasks []Task
}

func (b *Batch) Add(t Task) {
	b.mu.Lock()
	b.tasks = append(b.tasks, t)
	b.mu.Unlock()
}

// Tasks returns a copy of the collected tasks in insertion order.
func (b *Batch) Tasks() []Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tasks)
}

type batchKey struct{}

// WithBatch returns a child context carrying a fresh Batch.
func WithBatch(ctx context.Context) (context.Context, *Batch) {
	b := &Batch{}
	return context.WithValue(ctx, batchKey{}, b), b
}

// FromContext returns the Batch attached by WithBatch, if any.
func FromContext(ctx context.Context) (*Batch, bool) {
	b, ok := ctx.Value(batchKey{}).(*Batch)
	return b, ok
}

// Defer adds t to the context's batch. It reports false when ctx has none.
func Defer(ctx context.Context, t Task) bool {
	b, ok := FromContext(ctx)
	if !ok {
		return false
	}
	b.Add(t)
	return true
}
