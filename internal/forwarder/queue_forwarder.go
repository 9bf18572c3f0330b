package forwarder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/queue"
)

const (
	// DefaultFlushInterval is how often the pending buffer is drained.
	DefaultFlushInterval = 30 * time.Second
	// publishRetries bounds per-flush publish attempts; anything still
	// pending survives until the next flush.
	publishRetries = 3
	publishBackoff = 2 * time.Second
)

// QueueForwarder batches pending sessions in memory and drains them to a
// job queue on a fixed interval, retrying publishes with a fixed
// backoff. Broker and network errors are recoverable: the batch stays
// buffered and the forwarder reports offline until a flush succeeds.
type QueueForwarder struct {
	jobQueue queue.JobQueue
	deviceID string
	logger   *zap.Logger
	interval time.Duration

	mu       sync.Mutex
	sessions []*models.Session
	days     []*models.DailyStats
	lastSync time.Time
	online   bool
}

var _ Forwarder = (*QueueForwarder)(nil)

// Option configures a QueueForwarder.
type Option func(*QueueForwarder)

// WithFlushInterval overrides the default flush interval.
func WithFlushInterval(d time.Duration) Option {
	return func(f *QueueForwarder) {
		if d > 0 {
			f.interval = d
		}
	}
}

// NewQueueForwarder creates a forwarder publishing to jobQueue on behalf
// of deviceID.
func NewQueueForwarder(jobQueue queue.JobQueue, deviceID string, logger *zap.Logger, opts ...Option) *QueueForwarder {
	f := &QueueForwarder{
		jobQueue: jobQueue,
		deviceID: deviceID,
		logger:   logger,
		interval: DefaultFlushInterval,
		online:   true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Enqueue buffers an ended session. Never blocks.
func (f *QueueForwarder) Enqueue(session *models.Session) {
	f.mu.Lock()
	f.sessions = append(f.sessions, session)
	f.mu.Unlock()
}

// EnqueueDailySummary buffers a finished day's aggregate.
func (f *QueueForwarder) EnqueueDailySummary(day *models.DailyStats) {
	f.mu.Lock()
	f.days = append(f.days, day)
	f.mu.Unlock()
}

// Status returns the display-only sync state.
func (f *QueueForwarder) Status() models.SyncStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.SyncStatus{
		LastSyncTime: f.lastSync,
		IsOnline:     f.online,
		PendingCount: len(f.sessions) + len(f.days),
	}
}

// ForceSync flushes the pending buffer immediately.
func (f *QueueForwarder) ForceSync(ctx context.Context) error {
	return f.flush(ctx)
}

// Run drains the pending buffer on the flush interval until ctx is
// cancelled, then attempts one final flush.
func (f *QueueForwarder) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := f.flush(flushCtx); err != nil {
				f.logger.Warn("final_sync_flush_failed", zap.Error(err))
			}
			cancel()
			return
		case <-ticker.C:
			if err := f.flush(ctx); err != nil {
				f.logger.Warn("sync_flush_failed", zap.Error(err))
			}
		}
	}
}

// flush takes the current batch and publishes it job by job. Jobs that
// fail after retries go back to the front of the buffer.
func (f *QueueForwarder) flush(ctx context.Context) error {
	f.mu.Lock()
	sessions := f.sessions
	days := f.days
	f.sessions = nil
	f.days = nil
	f.mu.Unlock()

	if len(sessions) == 0 && len(days) == 0 {
		return nil
	}

	jobs := make([]*queue.Job, 0, len(sessions)+len(days))
	for _, s := range sessions {
		jobs = append(jobs, queue.NewSessionSyncJob(f.deviceID, s))
	}
	for _, d := range days {
		jobs = append(jobs, queue.NewDailySummaryJob(f.deviceID, d))
	}

	for i, job := range jobs {
		if err := f.publish(ctx, job); err != nil {
			// Requeue this job and everything after it for next flush.
			f.requeue(jobs[i:])
			f.setOnline(false)
			return fmt.Errorf("failed to publish sync job: %w", err)
		}
	}

	f.mu.Lock()
	f.lastSync = time.Now()
	f.online = true
	f.mu.Unlock()

	f.logger.Debug("sync_flush_complete", zap.Int("jobs", len(jobs)))
	return nil
}

// publish sends one job with a fixed-interval retry policy.
func (f *QueueForwarder) publish(ctx context.Context, job *queue.Job) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(publishBackoff), publishRetries),
		ctx,
	)
	return backoff.Retry(func() error {
		return f.jobQueue.Enqueue(ctx, job)
	}, policy)
}

// requeue puts unpublished jobs back at the front of the buffer.
func (f *QueueForwarder) requeue(jobs []*queue.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sessions []*models.Session
	var days []*models.DailyStats
	for _, j := range jobs {
		switch j.Type {
		case queue.JobTypeSessionSync:
			sessions = append(sessions, j.Session)
		case queue.JobTypeDailySummary:
			days = append(days, j.Summary)
		}
	}
	f.sessions = append(sessions, f.sessions...)
	f.days = append(days, f.days...)
}

func (f *QueueForwarder) setOnline(v bool) {
	f.mu.Lock()
	f.online = v
	f.mu.Unlock()
}
