package bus

import (
	"log/slog"
	"sync"
	"time"

	"wabot/internal/domain"
)

const publishTimeout = 10 * time.Second

// Queue is the single event queue between the two producers (transport
// session, operator console) and the one dispatcher loop.
type Queue struct {
	events chan domain.Event
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

// New creates a Queue with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *Queue {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Queue{
		events: make(chan domain.Event, bufferSize),
		logger: logger,
	}
}

// Publish enqueues an event. Blocks up to 10 seconds if the queue is full
// instead of dropping.
func (q *Queue) Publish(evt domain.Event) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.logger.Warn("attempted to publish to closed queue")
		return
	}

	select {
	case q.events <- evt:
	default:
		q.logger.Warn("event queue full, waiting...")
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case q.events <- evt:
		case <-timer.C:
			q.logger.Error("event dropped: queue full for 10s")
		}
	}
}

// Subscribe returns the consumer side of the queue.
func (q *Queue) Subscribe() <-chan domain.Event {
	return q.events
}

// Close shuts the queue down. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.events)
	}
}
