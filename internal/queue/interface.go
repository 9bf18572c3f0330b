package queue

import (
	"context"
	"time"
)

// MessageInterface defines the interface for queue messages.
// This enables mock implementations in worker tests.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue is the interface for sync job queues.
type JobQueue interface {
	// Enqueue adds a job to the queue.
	Enqueue(ctx context.Context, job *Job) error

	// Consume returns a channel of messages from the queue. Messages are
	// delivered asynchronously; the caller acknowledges each one.
	// Prefetch controls how many unacknowledged messages each consumer
	// can hold. The channels close when ctx is cancelled or the
	// connection is lost.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the queue connection.
	Close() error

	// HealthCheck verifies the queue connection is healthy.
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered messages older than a retention window.
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
