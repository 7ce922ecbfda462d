// Package flash queues user-visible notices until a view or the CLI drains them.
package flash

import (
	"context"
	"sync"

	"go.barcircle.dev/web/core/notice"
)

// DefaultCapacity is the number of notices kept before the oldest is dropped.
const DefaultCapacity = 32

// Queue is a bounded FIFO of notices. It implements notice.Notifier and is safe
// for concurrent use.
type Queue struct {
	mu       sync.Mutex
	items    []notice.Notice
	capacity int
	dropped  int
}

// NewQueue creates a queue holding at most capacity notices.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{capacity: capacity}
}

// Notify enqueues n, dropping the oldest notice when full.
// Empty messages are ignored.
func (q *Queue) Notify(_ context.Context, n notice.Notice) {
	if n.Message == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == q.capacity {
		q.items = q.items[1:]
		q.dropped++
	}
	q.items = append(q.items, n)
}

// Drain removes and returns all queued notices, oldest first.
func (q *Queue) Drain() []notice.Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued notices.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many notices were discarded because the queue was full.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Tee fans a notice out to several notifiers.
func Tee(notifiers ...notice.Notifier) notice.Notifier {
	return notice.NotifierFunc(func(ctx context.Context, n notice.Notice) {
		for _, nf := range notifiers {
			if nf != nil {
				nf.Notify(ctx, n)
			}
		}
	})
}
