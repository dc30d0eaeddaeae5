package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mediamirror/internal/inspect"
	"mediamirror/internal/inventory"
	"mediamirror/internal/journal"
	"mediamirror/internal/logging"
	"mediamirror/internal/outpath"
	"mediamirror/internal/runlock"
	"mediamirror/internal/services"
	"mediamirror/internal/taskrunner"
	"mediamirror/internal/workplan"
)

// Run mirrors opts.Source into opts.Output. The returned error is reserved
// for conditions that stop the whole run; per-task failures are reported in
// Result.Failures and through Result.Err.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	r := newRun(ctx, opts)
	result, err := r.execute()
	r.finish(result, err)
	return result, err
}

func validateOptions(opts Options) error {
	switch {
	case opts.Config == nil:
		return services.Wrap(services.ErrConfiguration, "pipeline", "run", "config required", nil)
	case opts.Source == "":
		return services.Wrap(services.ErrValidation, "pipeline", "run", "source directory required", nil)
	case opts.Prober == nil:
		return services.Wrap(services.ErrConfiguration, "pipeline", "run", "stream prober required", nil)
	case !opts.DryRun() && opts.Transcoder == nil:
		return services.Wrap(services.ErrConfiguration, "pipeline", "run", "transcoder required", nil)
	}
	return nil
}

// run holds the state of one invocation.
type run struct {
	ctx      context.Context
	opts     Options
	logger   *slog.Logger
	progress Progress
	started  time.Time
	result   *Result
	resolver *outpath.Resolver

	journalOpen bool
	journalWarn sync.Once

	copied    atomic.Int64
	encoded   atomic.Int64
	subtitles atomic.Int64
	sidecars  atomic.Int64
	skipped   atomic.Int64
	bytes     atomic.Int64
}

func newRun(ctx context.Context, opts Options) *run {
	id := uuid.NewString()
	progress := opts.Progress
	if progress == nil {
		progress = noopProgress{}
	}
	return &run{
		ctx:      services.WithRunID(ctx, id),
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "pipeline"),
		progress: progress,
		started:  time.Now(),
		result: &Result{
			RunID:    id,
			DryRun:   opts.DryRun(),
			Failures: taskrunner.Errors{},
		},
	}
}

// log returns the pipeline logger carrying the run, stage, and task of ctx.
func (r *run) log(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, r.logger)
}

func (r *run) execute() (*Result, error) {
	ctx := r.ctx
	cfg := r.opts.Config
	r.startJournal()

	r.log(ctx).Info("mirror started",
		logging.String("source", r.opts.Source),
		logging.String("output", r.opts.Output),
		logging.Bool("dry_run", r.opts.DryRun()),
	)

	r.progress.StageStarted(StageInventory, 0)
	tree, err := inventory.Scan(r.opts.Source)
	r.progress.StageFinished(StageInventory)
	if err != nil {
		return nil, fmt.Errorf("inventory %s: %w", r.opts.Source, err)
	}

	plan := workplan.Classify(tree, workplan.Targets{
		VideoExtension:    cfg.Encoding.VideoExtension,
		SubtitleExtension: cfg.Encoding.SubtitleExtension,
	})
	r.result.Plan = plan
	r.log(ctx).Info("source classified",
		logging.Int("directories", len(plan.DirectoriesToCreate)),
		logging.Int("copy", len(plan.FilesToCopy)),
		logging.Int("encode", len(plan.VideosToEncode)),
		logging.Int("subtitles", len(plan.SubtitlesToConvert)),
	)

	inspector := inspect.New(r.opts.Prober,
		inspect.Policy{AllowMultipleAudio: cfg.Encoding.AllowMultipleAudio},
		cfg.Encoding.Workers,
		r.opts.Logger,
		inspect.WithProbeHook(func(label string, err error) {
			r.progress.TaskDone(StageInspect, label, err)
		}),
	)
	r.progress.StageStarted(StageInspect, len(plan.VideosToEncode))
	err = inspector.Inspect(services.WithStage(ctx, StageInspect), plan.VideosToEncode)
	r.progress.StageFinished(StageInspect)
	if err != nil {
		return nil, err
	}

	if r.opts.DryRun() {
		r.result.Counts = plannedCounts(plan)
		r.log(ctx).Info("dry run complete, nothing written")
		return r.result, nil
	}

	lock, err := runlock.Acquire(cfg.LockDir(), r.opts.Output)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "lock output", r.opts.Output, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.WarnWithContext(r.log(ctx), "release output lock", "lock_release_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a stale lock file may remain in the state directory"),
			)
		}
	}()

	r.resolver = outpath.NewResolver(r.opts.Output)
	jobs := r.planJobs(plan)

	created, err := r.createDirectories(services.WithStage(ctx, StageDirs), plan.DirectoriesToCreate)
	r.result.Counts.Directories = created
	if err != nil {
		return nil, err
	}

	r.runStage(StageCopy, r.copyTasks(jobs.copies))
	r.runStage(StageEncode, r.encodeTasks(jobs.videos))
	r.runStage(StageSubtitles, r.subtitleTasks(jobs.subtitles))

	r.collectCounts()
	c := r.result.Counts
	r.log(ctx).Info("mirror complete",
		logging.Int("directories", c.Directories),
		logging.Int("copied", c.Copied),
		logging.Int("encoded", c.Encoded),
		logging.Int("subtitles", c.Subtitles),
		logging.Int("sidecars", c.Sidecars),
		logging.Int("skipped", c.Skipped),
		logging.Int("failed", c.Failed),
		logging.Duration("elapsed", time.Since(r.started)),
	)
	return r.result, nil
}

func plannedCounts(plan workplan.Plan) Counts {
	return Counts{
		Directories: len(plan.DirectoriesToCreate),
		Copied:      len(plan.FilesToCopy),
		Encoded:     len(plan.VideosToEncode),
		Subtitles:   len(plan.SubtitlesToConvert),
	}
}

// createDirectories builds the output skeleton and returns how many
// directories did not exist before.
func (r *run) createDirectories(ctx context.Context, rels []string) (int, error) {
	r.progress.StageStarted(StageDirs, len(rels))
	defer r.progress.StageFinished(StageDirs)

	created := 0
	for _, rel := range rels {
		path := r.resolver.Dir(rel)
		info, err := os.Stat(path)
		switch {
		case err == nil && info.IsDir():
			r.progress.TaskDone(StageDirs, rel, nil)
			continue
		case err == nil:
			return created, services.Wrap(services.ErrValidation, StageDirs, "create", path+" exists and is not a directory", nil)
		case !errors.Is(err, os.ErrNotExist):
			return created, fmt.Errorf("stat %s: %w", path, err)
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return created, fmt.Errorf("create directory %s: %w", path, err)
		}
		created++
		r.log(ctx).Debug("directory created", logging.String("path", path))
		r.progress.TaskDone(StageDirs, rel, nil)
	}
	return created, nil
}

func (r *run) runStage(stage string, tasks []taskrunner.Task) {
	if len(tasks) == 0 {
		return
	}
	ctx := services.WithStage(r.ctx, stage)
	r.progress.StageStarted(stage, len(tasks))
	failures := taskrunner.Run(ctx, tasks, taskrunner.Options{
		Workers: r.opts.Config.Encoding.Workers,
		Verbose: r.opts.Config.Run.Verbose,
		Logger:  r.opts.Logger,
		OnDone: func(label string, err error) {
			r.progress.TaskDone(stage, label, err)
		},
	})
	r.progress.StageFinished(stage)
	for label, err := range failures {
		r.result.Failures[label] = err
	}
}

func (r *run) collectCounts() {
	c := &r.result.Counts
	c.Copied = int(r.copied.Load())
	c.Encoded = int(r.encoded.Load())
	c.Subtitles = int(r.subtitles.Load())
	c.Sidecars = int(r.sidecars.Load())
	c.Skipped = int(r.skipped.Load())
	c.Failed = len(r.result.Failures)
	c.BytesCopied = r.bytes.Load()
}

// skip records an output that already exists.
func (r *run) skip(ctx context.Context, path string) {
	r.skipped.Add(1)
	r.log(ctx).Info("output exists, skipping", logging.String("output", path))
}

func (r *run) startJournal() {
	store := r.opts.Journal
	if store == nil || r.opts.DryRun() {
		return
	}
	err := store.StartRun(r.ctx, journal.Run{
		ID:        r.result.RunID,
		SourceDir: r.opts.Source,
		OutputDir: r.opts.Output,
		Backend:   r.opts.Config.Encoding.Backend,
		DryRun:    r.opts.DryRun(),
		StartedAt: r.started,
	})
	if err != nil {
		r.journalFailed(err)
		return
	}
	r.journalOpen = true
}

func (r *run) recordTask(ctx context.Context, task journal.Task) {
	if !r.journalOpen {
		return
	}
	task.RunID = r.result.RunID
	if err := r.opts.Journal.RecordTask(context.WithoutCancel(ctx), task); err != nil {
		r.journalFailed(err)
	}
}

// journalFailed warns once per run; history is best effort.
func (r *run) journalFailed(err error) {
	r.journalWarn.Do(func() {
		logging.WarnWithContext(r.log(r.ctx), "run journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory is writable"),
			logging.String(logging.FieldImpact, "this run may be missing from history"),
		)
	})
}

func (r *run) finish(result *Result, runErr error) {
	r.result.Duration = time.Since(r.started)
	if !r.journalOpen {
		return
	}
	status := journal.RunCompleted
	switch {
	case runErr != nil:
		status = journal.RunFailed
	case result.Err() != nil:
		status = journal.RunPartial
		runErr = result.Err()
	}
	counts := r.result.Counts.journal()
	if err := r.opts.Journal.FinishRun(context.WithoutCancel(r.ctx), r.result.RunID, status, counts, runErr); err != nil {
		r.journalFailed(err)
	}
}
