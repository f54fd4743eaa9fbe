// Package worker runs queued batch trips through the stipend calculator one at a time.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/pkg/logger"
	"github.com/okian/stipend/pkg/metrics"
)

// Calculator computes a breakdown for a trip.
type Calculator interface {
	Calculate(ctx context.Context, trip model.TripRequest) (model.StipendBreakdown, error)
}

// Reporter receives the outcome of each task.
type Reporter interface {
	Complete(ctx context.Context, key string, b model.StipendBreakdown, err error)
}

// Queue defines how the worker receives tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Task
}

// Worker processes tasks until its queue closes.
type Worker interface {
	// Run starts the worker loop until the queue is drained and closed or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown waits for Run to return. The caller closes the queue first so
	// remaining tasks are drained; if ctx expires the loop is abandoned.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker. Tasks are processed strictly one after another.
type InMemoryWorker struct {
	queue    Queue
	calc     Calculator
	reporter Reporter
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, calc Calculator, reporter Reporter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		calc:     calc,
		reporter: reporter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			w.process(ctx, t)
		}
	}
}

// Shutdown waits for the loop to finish draining.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		close(w.shutdown)
		w.logger.Warn(ctx, "shutdown timed out; abandoning queued trips")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, t model.Task) {
	start := time.Now()
	b, err := w.safeCalculate(ctx, t.Trip)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "calculation_error")
		w.logger.Error(ctx, "batch trip failed",
			logger.String("key", t.Key),
			logger.Error(err))
	} else {
		w.logger.Debug(ctx, "batch trip done",
			logger.String("key", t.Key),
			logger.Float64("total", b.TotalStipend),
			logger.Duration("took", time.Since(start)))
	}
	w.reporter.Complete(ctx, t.Key, b, err)
}

// safeCalculate keeps one bad trip from killing the loop.
func (w *InMemoryWorker) safeCalculate(ctx context.Context, trip model.TripRequest) (b model.StipendBreakdown, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("calculation panicked: %v", p)
		}
	}()
	return w.calc.Calculate(ctx, trip)
}
