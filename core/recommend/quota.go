package recommend

import "sync"

// quota counts the provider calls made by the process.
type quota struct {
	mu    sync.Mutex
	count int
	max   int
}

// take consumes one request; ok is false once the quota is exhausted.
func (q *quota) take() (Usage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count >= q.max {
		return q.usageLocked(), false
	}
	q.count++
	return q.usageLocked(), true
}

func (q *quota) usage() Usage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.usageLocked()
}

func (q *quota) usageLocked() Usage {
	remaining := q.max - q.count
	if remaining < 0 {
		remaining = 0
	}
	return Usage{RequestCount: q.count, MaxRequests: q.max, RemainingRequests: remaining}
}
