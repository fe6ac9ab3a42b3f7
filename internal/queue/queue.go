package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/leadflow/automation/internal/log"
)

// Handler processes one job payload. Returning a *RetryableError asks the
// queue to back off and requeue; any other error drops the job.
type Handler func(payload any) error

// RetryableError wraps a transient failure, e.g. a rate-limit response.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func Retryable(err error) error {
	return &RetryableError{Err: err}
}

type job struct {
	key     string
	payload any
	retries int
}

// WorkQueue is a bounded, deduplicating work queue with per-key in-flight
// tracking. A single consumer goroutine drains the channel; a key already
// queued or in flight is rejected at Enqueue time, so the same reply event
// is never processed twice concurrently.
type WorkQueue struct {
	mu       sync.Mutex
	inFlight map[string]bool
	closed   bool
	jobs     chan job

	handler    Handler
	maxRetries int

	stopOnce sync.Once
	done     chan struct{}
}

// NewWorkQueue creates a queue with the given buffer size and handler.
func NewWorkQueue(size int, handler Handler) *WorkQueue {
	if size <= 0 {
		size = 64
	}
	return &WorkQueue{
		inFlight:   make(map[string]bool),
		jobs:       make(chan job, size),
		handler:    handler,
		maxRetries: 3,
		done:       make(chan struct{}),
	}
}

// Start launches the consumer loop.
func (q *WorkQueue) Start() {
	go q.run()
}

// Stop closes the queue; queued jobs are still drained.
func (q *WorkQueue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.jobs)
	})
	<-q.done
}

// Enqueue adds a job keyed by a content fingerprint. It returns an error
// when the queue is stopped, the key is already queued or in flight
// (duplicate), or the buffer is full. The send happens under the mutex so
// Stop cannot close the channel between the check and the send.
func (q *WorkQueue) Enqueue(key string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue is stopped, dropping job for key %s", key)
	}
	if q.inFlight[key] {
		return fmt.Errorf("duplicate job for key %s", key)
	}

	select {
	case q.jobs <- job{key: key, payload: payload}:
		q.inFlight[key] = true
		return nil
	default:
		return fmt.Errorf("queue full, dropping job for key %s", key)
	}
}

func (q *WorkQueue) release(key string) {
	q.mu.Lock()
	delete(q.inFlight, key)
	q.mu.Unlock()
}

func (q *WorkQueue) run() {
	defer close(q.done)
	for j := range q.jobs {
		q.process(j)
	}
}

// process runs the handler with bounded backoff-and-retry on retryable
// errors. The in-flight key is held for the whole retry loop.
func (q *WorkQueue) process(j job) {
	logger := log.GetLogger()
	defer q.release(j.key)

	for {
		err := q.handler(j.payload)
		if err == nil {
			return
		}

		if _, retryable := err.(*RetryableError); !retryable {
			logger.Warnf("job %s failed: %v", j.key, err)
			return
		}

		j.retries++
		if j.retries > q.maxRetries {
			logger.Warnf("job %s permanently failed after %d attempts: %v", j.key, q.maxRetries, err)
			return
		}

		logger.Warnf("job %s failed (attempt %d/%d), backing off: %v", j.key, j.retries, q.maxRetries, err)
		time.Sleep(time.Duration(j.retries*500) * time.Millisecond)
	}
}
