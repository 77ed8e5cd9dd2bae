// Package worker runs the scoring pipeline over queued signals. Each
// (signal, OEM) computation is independent, so the pool parallelizes
// freely across workers.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/supplyline/internal/adapters/mq/queue"
	"github.com/okian/supplyline/internal/domain/model"
	"github.com/okian/supplyline/pkg/logger"
	"github.com/okian/supplyline/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Assessor turns one classified signal into per-OEM exposure assessments.
type Assessor interface {
	Assess(ctx context.Context, s model.Event) ([]model.OEMExposure, error)
}

// Sink receives finished assessments.
type Sink interface {
	Upsert(ctx context.Context, e model.OEMExposure) (bool, error)
}

// Queue defines how workers receive signals.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Signal
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name for logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// Worker processes signals from the queue until stopped.
type Worker struct {
	queue    Queue
	assessor Assessor
	sink     Sink
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker bound to a queue, assessor and sink.
func NewWorker(q Queue, a Assessor, s Sink, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		assessor: a,
		sink:     s,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop until ctx is cancelled or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	signals := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-signals:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "signal processing failed", logger.String("signal_id", s.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight signal.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) process(ctx context.Context, s queue.Signal) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()

	assessments, err := w.assessor.Assess(ctx, s)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("assess signal %s: %w", s.ID, err)
	}

	for _, a := range assessments {
		if _, err := w.sink.Upsert(ctx, a); err != nil {
			metrics.RecordWorkerError()
			return fmt.Errorf("store assessment for %s: %w", a.OEMID, err)
		}
		metrics.RecordAssessment()
	}
	return nil
}

// Pool manages a fixed set of workers.
type Pool struct {
	workers []*Worker
	queue   Queue

	logger logger.Logger
}

// NewPool creates and wires workerCount workers.
func NewPool(workerCount int, q Queue, a Assessor, s Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewWorker(q, a, s, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits briefly for each.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()
	for _, w := range p.workers {
		_ = w.Shutdown(ctx)
	}
}

// Shutdown closes the queue and drains the workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
