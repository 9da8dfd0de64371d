// Package loop provides the single-threaded task queue that runs deferred
// work after the current synchronous turn.
package loop

import (
	"errors"
	"sync"
)

// Task is a unit of deferred work.
type Task func() error

// Queue is a FIFO of deferred tasks. Defer never runs a task inline; tasks
// run only when the owner drains the queue with Flush. The zero value is
// ready to use.
type Queue struct {
	mu      sync.Mutex // guards pending
	pending []Task

	drain sync.Mutex // one Flush at a time, so tasks never interleave
}

// Defer queues task to run on the next Flush.
func (q *Queue) Defer(task Task) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, task)
	q.mu.Unlock()
}

// Len reports how many tasks are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush runs queued tasks in order until the queue is empty, including
// tasks deferred while flushing. A failing task does not stop the ones
// after it; all errors are returned joined.
func (q *Queue) Flush() error {
	q.drain.Lock()
	defer q.drain.Unlock()

	var errs []error
	for {
		task, ok := q.next()
		if !ok {
			return errors.Join(errs...)
		}
		if err := task(); err != nil {
			errs = append(errs, err)
		}
	}
}

func (q *Queue) next() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, false
	}
	task := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return task, true
}
