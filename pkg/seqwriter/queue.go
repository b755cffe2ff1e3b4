package seqwriter

import "sync"

// taskQueue is the unbounded hand-off between producers and the write
// worker. Push never blocks; pop blocks until a task is available.
type taskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*task
	closed bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends t. It returns ErrWriterClosed once the queue is closed.
func (q *taskQueue) push(t *task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrWriterClosed
	}
	q.items = append(q.items, t)
	q.cond.Signal()
	return nil
}

// pushFront inserts t ahead of every queued task.
func (q *taskQueue) pushFront(t *task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrWriterClosed
	}
	q.items = append(q.items, nil)
	copy(q.items[1:], q.items)
	q.items[0] = t
	q.cond.Signal()
	return nil
}

// pop removes the first task, waiting for one if necessary. It returns nil
// only if the queue is closed and empty.
func (q *taskQueue) pop() *task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil
	}
	t := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return t
}

// close rejects further pushes and returns what was still queued.
func (q *taskQueue) close() []*task {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	rest := q.items
	q.items = nil
	q.cond.Broadcast()
	return rest
}

func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
