package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"geomancer/core/logger"
	"geomancer/core/metrics"

	"go.uber.org/zap"
)

// Handler runs one job and returns a JSON-serializable result.
type Handler func(ctx context.Context, key string, payload json.RawMessage) (any, error)

// Worker drains the queue one job at a time.
type Worker struct {
	queue       *Queue
	handlers    map[string]Handler
	log         *zap.Logger
	pollTimeout time.Duration
}

// NewWorker creates a worker on q.
func NewWorker(q *Queue, log *zap.Logger, pollTimeout time.Duration) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	// BLPOP treats 0 as block forever and rounds down to whole seconds.
	if pollTimeout < time.Second {
		pollTimeout = time.Second
	}
	return &Worker{queue: q, handlers: make(map[string]Handler), log: log, pollTimeout: pollTimeout}
}

// Handle registers the handler of a task.
func (w *Worker) Handle(task string, h Handler) {
	w.handlers[task] = h
}

// Run processes jobs until ctx is cancelled. Job failures never stop the
// loop; Redis errors are logged and retried after a short pause.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Worker started", zap.String("queue", w.queue.Key()))
	for {
		if ctx.Err() != nil {
			w.log.Info("Worker stopped")
			return nil
		}
		if _, err := w.ProcessOne(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Error("Queue receive failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessOne waits for one job and runs it. It returns false when the poll
// timed out.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	msg, err := w.queue.pop(ctx, w.pollTimeout)
	if err != nil {
		return false, err
	}
	if msg == nil {
		return false, nil
	}

	log := logger.WithJob(w.log, msg.Key, msg.Task)
	start := time.Now()
	value, err := w.run(ctx, msg)
	elapsed := time.Since(start)

	var res Result
	if err != nil {
		res = errorResult(err)
		log.Warn("Job failed", zap.Duration("duration", elapsed), zap.Error(err))
	} else {
		body, merr := json.Marshal(value)
		if merr != nil {
			res = errorResult(fmt.Errorf("failed to encode result: %w", merr))
		} else {
			res = Result{Status: StatusOK, Result: body}
		}
		log.Info("Job finished", zap.Duration("duration", elapsed))
	}
	metrics.JobsTotal.WithLabelValues(msg.Task, res.Status).Inc()
	metrics.JobDurationMs.WithLabelValues(msg.Task).Observe(float64(elapsed.Milliseconds()))

	if err := w.queue.store(ctx, msg.Key, res); err != nil {
		log.Error("Failed to store job result", zap.Error(err))
	}
	return true, nil
}

// run calls the task handler, converting panics into errors.
func (w *Worker) run(ctx context.Context, msg *Message) (value any, err error) {
	h, ok := w.handlers[msg.Task]
	if !ok {
		return nil, fmt.Errorf("unknown task %q", msg.Task)
	}
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job panicked", zap.String("job_key", msg.Key), zap.Any("panic", r), zap.Stack("stack"))
			err = &panicError{value: r}
		}
	}()
	return h(ctx, msg.Key, msg.Payload)
}

type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("Error: %v", p.value)
}

func errorResult(err error) Result {
	msg := err.Error()
	if msg == "" {
		msg = "Error: unknown failure"
	}
	body, _ := json.Marshal(msg)
	return Result{Status: StatusError, Result: body}
}
