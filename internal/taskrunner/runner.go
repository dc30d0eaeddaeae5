package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"mediamirror/internal/logging"
	"mediamirror/internal/services"
)

// ErrTaskPanic marks a task that panicked instead of returning.
var ErrTaskPanic = errors.New("task panicked")

// Task is one unit of work. Label names it in logs and in the failure map.
type Task struct {
	Label  string
	Action func(ctx context.Context) error
}

// Errors maps task labels to the error each failed task produced.
type Errors map[string]error

// Labels returns the failed task labels in sorted order.
func (e Errors) Labels() []string {
	labels := make([]string, 0, len(e))
	for label := range e {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Options configures Run.
type Options struct {
	// Workers bounds concurrency. Zero or negative selects DefaultWorkers.
	Workers int
	// Verbose logs start, completion, and failure of every task at info level.
	Verbose bool
	Logger  *slog.Logger
	// OnDone is called after each task finishes, from the worker goroutine.
	OnDone func(label string, err error)
}

// DefaultWorkers leaves two CPUs free for the rest of the system, with a
// floor of one worker.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()-2)
}

// Run executes tasks with at most opts.Workers running at once and returns
// the failures keyed by label. Tasks sharing a label have their errors joined.
func Run(ctx context.Context, tasks []Task, opts Options) Errors {
	failures := Errors{}
	if len(tasks) == 0 {
		return failures
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	workers = min(workers, len(tasks))

	logger := logging.NewComponentLogger(opts.Logger, "taskrunner")

	var mu sync.Mutex
	record := func(label string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if existing, ok := failures[label]; ok {
			failures[label] = errors.Join(existing, err)
			return
		}
		failures[label] = err
	}

	jobs := make(chan Task)
	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for task := range jobs {
			taskCtx := services.WithTaskLabel(ctx, task.Label)
			taskLogger := logging.WithContext(taskCtx, logger)
			start := time.Now()
			if opts.Verbose {
				taskLogger.Info("task started")
			}

			err := execute(taskCtx, task)
			if err != nil {
				record(task.Label, err)
				logging.ErrorWithContext(taskLogger, "task failed", "task_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "the remaining tasks continue; rerun to retry skipped outputs"),
				)
			} else if opts.Verbose {
				taskLogger.Info("task complete", logging.Duration("elapsed", time.Since(start)))
			}
			if opts.OnDone != nil {
				opts.OnDone(task.Label, err)
			}
		}
	}

	for range workers {
		wg.Add(1)
		go worker()
	}
	for _, task := range tasks {
		jobs <- task
	}
	close(jobs)
	wg.Wait()

	return failures
}

func execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	if task.Action == nil {
		return nil
	}
	return task.Action(ctx)
}
