package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/likexin0304/expense-tracker-backend/internal/common"
	"github.com/likexin0304/expense-tracker-backend/internal/recognition"
)

// RecognizerQueue runs recognition jobs on a fixed worker pool. Outcomes are
// persisted by the service as OCRRecords; the queue itself keeps no results.
type RecognizerQueue struct {
	svc     *recognition.Service
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*RecognizerQueue)

func WithWorkers(n int) Option {
	return func(q *RecognizerQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *RecognizerQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *RecognizerQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewRecognizerQueue(svc *recognition.Service, logger *slog.Logger, opts ...Option) *RecognizerQueue {
	q := &RecognizerQueue{
		svc:     svc,
		logger:  logger,
		workers: 4,
		timeout: 30 * time.Second,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *RecognizerQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.process(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *RecognizerQueue) process(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}
	ctx = common.WithOwnerID(ctx, job.OwnerID.String())

	var err error
	var confidence float64
	if job.AutoCreate {
		var resp *recognition.AutoCreateResponse
		resp, err = q.svc.ParseAndAutoCreate(ctx, job.OwnerID, job.Text, job.Threshold)
		if err == nil {
			confidence = resp.Confidence
		}
	} else {
		var resp *recognition.ParseResponse
		resp, err = q.svc.Parse(ctx, job.OwnerID, job.Text)
		if err == nil {
			confidence = resp.Confidence
		}
	}

	if err != nil {
		q.logger.Error("recognition failed",
			"worker_id", workerID, "owner_id", job.OwnerID, "trace_id", job.TraceID, "error", err)
		return
	}
	q.logger.Info("recognition complete",
		"worker_id", workerID, "owner_id", job.OwnerID, "trace_id", job.TraceID, "confidence", confidence)
}

func (q *RecognizerQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "trace_id", job.TraceID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued text for recognition", "trace_id", job.TraceID, "auto_create", job.AutoCreate)
	default:
		q.logger.Warn("queue full, applying backpressure", "trace_id", job.TraceID)
		q.ch <- job
	}
	return nil
}

func (q *RecognizerQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
