// Package worker computes recency rows for queued student partitions.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/edulog/internal/adapters/mq/queue"
	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/pkg/logger"
	"github.com/okian/edulog/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Computer turns one partition into report rows.
type Computer interface {
	Compute(ctx context.Context, p *model.Partition) ([]model.RecencyRow, error)
}

// Sink receives computed rows. Implementations must be safe for concurrent use.
type Sink interface {
	Add(ctx context.Context, rows []model.RecencyRow) error
}

// Queue defines how workers receive partitions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Partition
}

// Worker processes partitions until the queue drains.
type Worker interface {
	// Run starts the worker loop until the queue is closed or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the partition in progress.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	computer Computer
	sink     Sink
	name     string
	onError  func(error)

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, computer Computer, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		computer: computer,
		sink:     sink,
		name:     "worker",
		onError:  func(error) {},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case p, ok := <-items:
			if !ok {
				return
			}
			if err := w.process(ctx, &p); err != nil {
				w.logger.Error(ctx, "partition failed", logger.String("user", p.User), logger.Error(err))
				w.onError(err)
			}
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown stops the worker and waits for Run to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, p *model.Partition) error {
	start := time.Now()
	defer func() {
		metrics.RecordPartitionLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	rows, err := w.computer.Compute(ctx, p)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "compute_error")
		return fmt.Errorf("compute %s: %w", p.User, err)
	}

	if err := w.sink.Add(ctx, rows); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "sink_error")
		return fmt.Errorf("store %s: %w", p.User, err)
	}

	for i := range rows {
		if rows[i].First {
			metrics.RecordRowEmitted("first")
		} else {
			metrics.RecordRowEmitted("since")
		}
	}
	metrics.RecordPartitionProcessed()
	w.logger.Debug(ctx, "partition done", logger.String("user", p.User),
		logger.Int("submissions", len(p.Submissions)), logger.Int("rows", len(rows)))
	return nil
}

// Pool manages multiple workers draining one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64

	errMu sync.Mutex
	err   error

	logger logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 uses one worker per CPU.
func NewPool(workerCount int, q Queue, computer Computer, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	counted := countingSink{sink: sink, processed: &pool.processed}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, computer, counted,
			WithName("worker-"+strconv.Itoa(i)),
			WithErrorHandler(pool.recordError),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

type countingSink struct {
	sink      Sink
	processed *atomic.Int64
}

func (c countingSink) Add(ctx context.Context, rows []model.RecencyRow) error {
	if err := c.sink.Add(ctx, rows); err != nil {
		return err
	}
	c.processed.Add(1)
	return nil
}

func (p *Pool) recordError(err error) {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of partitions fully processed.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Err returns the first partition error, if any.
func (p *Pool) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned, which happens once the
// queue is closed and drained or the run context is canceled. It returns
// the first partition error.
func (p *Pool) Wait() error {
	for _, w := range p.workers {
		<-w.Done()
	}
	return p.Err()
}

// Shutdown closes the queue if it can be closed and stops all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
