package record

import (
	"sync"
	"time"
)

// Sink accepts exchanges from handler goroutines.
type Sink interface {
	// Begin announces an exchange in progress.
	Begin()
	// Put delivers a finished exchange. Every Begin is followed by one Put.
	Put(Exchange)
}

// Queue is a multi-producer, single-consumer exchange sink. Producers never
// block on the consumer.
type Queue struct {
	mu       sync.Mutex
	items    []Exchange
	inflight int
	idle     chan struct{} // closed while inflight == 0
}

var _ Sink = (*Queue)(nil)

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	idle := make(chan struct{})
	close(idle)
	return &Queue{idle: idle}
}

// Begin marks one more exchange in flight.
func (q *Queue) Begin() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inflight == 0 {
		q.idle = make(chan struct{})
	}
	q.inflight++
}

// Put appends e and marks one exchange finished.
func (q *Queue) Put(e Exchange) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, e)
	if q.inflight > 0 {
		q.inflight--
		if q.inflight == 0 {
			close(q.idle)
		}
	}
}

// Pending returns the number of exchanges begun but not yet put.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inflight
}

// Drain removes and returns every queued exchange in arrival order. When
// wait is positive it first waits up to wait for in-flight exchanges to be
// put. Exchanges still in flight after the wait stay in the queue.
func (q *Queue) Drain(wait time.Duration) []Exchange {
	if wait > 0 {
		q.mu.Lock()
		idle := q.idle
		q.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-idle:
		case <-timer.C:
		}
		timer.Stop()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}
