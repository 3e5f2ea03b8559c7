package tiles

import "sync"

// JobQueue hands each group to exactly one caller. The slice is fixed at
// construction; only the cursor moves.
type JobQueue struct {
	mu     sync.Mutex
	groups []*Group
	next   int
}

// NewJobQueue builds a queue over groups. The slice is copied.
func NewJobQueue(groups []*Group) *JobQueue {
	return &JobQueue{groups: append([]*Group(nil), groups...)}
}

// TakeNext returns the next group, or false once the queue is exhausted.
// It keeps returning false on every later call.
func (q *JobQueue) TakeNext() (*Group, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.groups) {
		return nil, false
	}
	group := q.groups[q.next]
	q.next++
	return group, true
}

// Len is the total number of groups the queue was built with.
func (q *JobQueue) Len() int {
	return len(q.groups)
}

// Remaining is the number of groups not yet taken.
func (q *JobQueue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.groups) - q.next
}
