package forwarder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/queue"
)

type fakeQueue struct {
	mu       sync.Mutex
	jobs     []*queue.Job
	failures int // number of Enqueue calls to fail before succeeding
}

func (f *fakeQueue) Enqueue(_ context.Context, job *queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return fmt.Errorf("broker unavailable")
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, fmt.Errorf("not implemented")
}

func (f *fakeQueue) Close() error                      { return nil }
func (f *fakeQueue) HealthCheck(context.Context) error { return nil }

func (f *fakeQueue) published() []*queue.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*queue.Job, len(f.jobs))
	copy(out, f.jobs)
	return out
}

func newTestForwarder(q queue.JobQueue) *QueueForwarder {
	f := NewQueueForwarder(q, "device-1", zap.NewNop())
	f.interval = 10 * time.Millisecond
	return f
}

func endedSession(domain string, total int64) *models.Session {
	s := models.NewSession(models.Tab{ID: 1, URL: "https://" + domain + "/"}, domain, time.Now())
	s.TotalTime = total
	return s
}

func TestQueueForwarder_FlushPublishesPending(t *testing.T) {
	t.Parallel()

	fq := &fakeQueue{}
	f := newTestForwarder(fq)

	f.Enqueue(endedSession("a.com", 1000))
	f.Enqueue(endedSession("b.com", 2000))
	f.EnqueueDailySummary(models.NewDailyStats("2024-01-15"))

	if got := f.Status().PendingCount; got != 3 {
		t.Fatalf("PendingCount = %d, want 3", got)
	}

	if err := f.ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync: %v", err)
	}

	jobs := fq.published()
	if len(jobs) != 3 {
		t.Fatalf("published %d jobs, want 3", len(jobs))
	}
	if jobs[0].Type != queue.JobTypeSessionSync || jobs[2].Type != queue.JobTypeDailySummary {
		t.Errorf("job types: %v %v %v", jobs[0].Type, jobs[1].Type, jobs[2].Type)
	}

	st := f.Status()
	if st.PendingCount != 0 || !st.IsOnline || st.LastSyncTime.IsZero() {
		t.Errorf("status after flush: %+v", st)
	}
}

func TestQueueForwarder_PublishRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	fq := &fakeQueue{failures: 2}
	f := newTestForwarder(fq)

	f.Enqueue(endedSession("a.com", 500))

	if err := f.ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync should survive %d transient failures: %v", 2, err)
	}
	if len(fq.published()) != 1 {
		t.Fatalf("published %d jobs, want 1", len(fq.published()))
	}
}

func TestQueueForwarder_FailedBatchStaysPending(t *testing.T) {
	t.Parallel()

	// More failures than the retry budget: the flush fails and the
	// session must survive for the next attempt.
	fq := &fakeQueue{failures: 10}
	f := newTestForwarder(fq)

	f.Enqueue(endedSession("a.com", 500))

	if err := f.ForceSync(context.Background()); err == nil {
		t.Fatal("expected flush to fail")
	}

	st := f.Status()
	if st.PendingCount != 1 {
		t.Errorf("PendingCount = %d, want 1", st.PendingCount)
	}
	if st.IsOnline {
		t.Error("forwarder should report offline after failed flush")
	}

	// Broker recovers; the buffered session is delivered.
	fq.mu.Lock()
	fq.failures = 0
	fq.mu.Unlock()
	if err := f.ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync after recovery: %v", err)
	}
	if len(fq.published()) != 1 {
		t.Fatalf("published %d jobs after recovery, want 1", len(fq.published()))
	}
	if !f.Status().IsOnline {
		t.Error("forwarder should report online after successful flush")
	}
}

func TestQueueForwarder_RunFlushesOnInterval(t *testing.T) {
	t.Parallel()

	fq := &fakeQueue{}
	f := newTestForwarder(fq)
	f.Enqueue(endedSession("a.com", 100))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(fq.published()) == 0 {
		select {
		case <-deadline:
			t.Fatal("flusher never published the pending session")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
