/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: worker.go
Description: Background pipeline worker. Runs a pipeline on its own goroutine,
streams per-stage progress and delivers a single completion unless the run's
context is cancelled first.
*/

package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/kleascm/bitlens/pkg/pipeline"
	"github.com/sirupsen/logrus"
)

// Completion is the final message of a background run
type Completion struct {
	Result   *pipeline.Result
	Err      error // joined stage errors, nil when every stage succeeded
	Duration time.Duration
}

// WorkerStats summarizes the runs a worker has finished
type WorkerStats struct {
	Runs      int64
	Failed    int64 // runs with at least one stage error
	Cancelled int64
}

// Worker evaluates pipelines off the caller's goroutine
type Worker struct {
	runner pipeline.Runner
	logger logrus.FieldLogger

	stats WorkerStats
	mu    sync.RWMutex
	wg    sync.WaitGroup
}

// NewWorker creates a worker around runner. The runner's OnProgress hook is
// replaced by the worker's channel.
func NewWorker(runner *pipeline.Runner, logger logrus.FieldLogger) *Worker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	w := &Worker{logger: logger}
	if runner != nil {
		w.runner = *runner
	}
	return w
}

// Start runs ops in the background. The progress channel is closed when the run
// ends; the completion channel receives at most one value and is then closed. No
// completion is sent when ctx is cancelled. ops must not be modified until the
// completion channel closes.
func (w *Worker) Start(ctx context.Context, ops []pipeline.BitOperation, in pipeline.Input) (<-chan pipeline.Progress, <-chan Completion) {
	progress := make(chan pipeline.Progress, len(ops))
	completion := make(chan Completion, 1)

	runner := w.runner
	runner.OnProgress = func(p pipeline.Progress) {
		select {
		case progress <- p:
		case <-ctx.Done():
		}
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(completion)

		start := time.Now()
		result, err := runner.Run(ctx, ops, in)
		close(progress)

		if err != nil || ctx.Err() != nil {
			w.mu.Lock()
			w.stats.Cancelled++
			w.mu.Unlock()
			w.logger.WithField("stages", len(ops)).Debug("STAGE: pipeline run cancelled")
			return
		}

		done := Completion{Result: result, Err: result.Err(), Duration: time.Since(start)}
		w.mu.Lock()
		w.stats.Runs++
		if done.Err != nil {
			w.stats.Failed++
		}
		w.mu.Unlock()

		w.logger.WithFields(logrus.Fields{
			"stages":   len(ops),
			"bits":     result.Bits.Len(),
			"errors":   len(result.Errors),
			"duration": done.Duration,
		}).Debug("STAGE: pipeline run finished")

		completion <- done
	}()

	return progress, completion
}

// Wait blocks until every started run has finished
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Stats returns a snapshot of the worker counters
func (w *Worker) Stats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}
