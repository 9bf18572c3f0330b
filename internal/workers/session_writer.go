package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tabwatch/tabwatch/internal/database"
	"github.com/tabwatch/tabwatch/internal/queue"
)

// SessionWriter consumes sync jobs and writes them to the remote store.
type SessionWriter struct {
	sessionRepo database.SessionRepositoryInterface
	summaryRepo database.SummaryRepositoryInterface
	jobQueue    queue.JobQueue
	logger      *zap.Logger
}

// NewSessionWriter creates a new session writer
func NewSessionWriter(
	sessionRepo database.SessionRepositoryInterface,
	summaryRepo database.SummaryRepositoryInterface,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *SessionWriter {
	return &SessionWriter{
		sessionRepo: sessionRepo,
		summaryRepo: summaryRepo,
		jobQueue:    jobQueue,
		logger:      logger,
	}
}

// ProcessJob handles one queue message end to end, including its
// acknowledgement. A failed write is re-enqueued with an incremented
// retry count until the budget runs out, then dead-lettered.
func (w *SessionWriter) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.IsExpired() {
		w.logger.Warn("job_expired",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		if err := msg.Ack(); err != nil {
			return fmt.Errorf("failed to ack expired job: %w", err)
		}
		return nil
	}

	if err := w.writeJob(ctx, job); err != nil {
		return w.handleFailure(ctx, msg, err)
	}

	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}

	w.logger.Debug("job_written",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("device_id", job.DeviceID),
	)
	return nil
}

func (w *SessionWriter) writeJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeSessionSync:
		if job.Session == nil {
			return fmt.Errorf("session is required for %s job", job.Type)
		}
		return w.sessionRepo.Insert(ctx, job.DeviceID, job.Session)

	case queue.JobTypeDailySummary:
		if job.Summary == nil {
			return fmt.Errorf("summary is required for %s job", job.Type)
		}
		return w.summaryRepo.Upsert(ctx, job.DeviceID, job.Summary)

	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleFailure re-enqueues the job while it has retry budget; the
// original message is acked so the retry copy is the only live one.
// Exhausted or un-enqueueable jobs are nacked without requeue, which
// dead-letters them.
func (w *SessionWriter) handleFailure(ctx context.Context, msg queue.MessageInterface, writeErr error) error {
	job := msg.GetJob()

	if job.CanRetry() {
		job.IncrementRetry()
		if err := w.jobQueue.Enqueue(ctx, job); err == nil {
			w.logger.Warn("job_retry_enqueued",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Error(writeErr),
			)
			if ackErr := msg.Ack(); ackErr != nil {
				return fmt.Errorf("failed to ack retried job: %w", ackErr)
			}
			return nil
		}
	}

	w.logger.Error("job_dead_lettered",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(writeErr),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		return fmt.Errorf("failed to nack job: %w", nackErr)
	}
	return writeErr
}
