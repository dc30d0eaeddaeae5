package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"mediamirror/internal/deps"
	"mediamirror/internal/inspect"
	"mediamirror/internal/journal"
	"mediamirror/internal/logging"
	"mediamirror/internal/media/ffprobe"
	"mediamirror/internal/pipeline"
	"mediamirror/internal/preflight"
	"mediamirror/internal/services"
	"mediamirror/internal/transcode"
)

func runMirror(cmd *cobra.Command, ctx *commandContext, args []string) error {
	cfg, err := ctx.ensureConfig(cmd)
	if err != nil {
		return err
	}

	source, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	var output string
	if len(args) > 1 {
		if output, err = filepath.Abs(args[1]); err != nil {
			return fmt.Errorf("resolve output: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	colorize := shouldColorize(out)

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "logging", "init", "", err)
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := preflight.RunAll(runCtx, cfg, preflight.Options{
		Source:  source,
		Output:  output,
		Checker: deps.NewChecker(ctx.runner),
	})
	if failed := preflight.Failed(checks); len(failed) > 0 {
		for _, line := range renderSectionHeader("Preflight", colorize) {
			fmt.Fprintln(out, line)
		}
		for _, check := range failed {
			fmt.Fprintln(out, renderStatusLine(check.Name, statusError, check.Detail, colorize))
		}
		return services.Wrap(services.ErrValidation, "preflight", "", fmt.Sprintf("%d check(s) failed", len(failed)), nil)
	}

	var store *journal.Store
	// Dry runs leave the state directory untouched.
	if cfg.Run.Journal && output != "" {
		store, err = journal.Open(cfg)
		if err != nil {
			logging.WarnWithContext(logger, "run journal unavailable", "journal_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run will not appear in history"),
			)
			store = nil
		} else {
			defer store.Close()
		}
	}

	tr, err := transcode.New(transcode.Options{
		Backend:       cfg.Encoding.Backend,
		FFmpegBinary:  cfg.Encoding.FFmpegBinary,
		CRF:           cfg.Encoding.CRF,
		Logger:        logger,
		CommandRunner: ctx.runner,
	})
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Source:     source,
		Output:     output,
		Config:     cfg,
		Prober:     ffprobe.NewProber(cfg.Encoding.FFprobeBinary, ffprobe.WithCommandRunner(ctx.runner)),
		Transcoder: tr,
		Journal:    store,
		Logger:     logger,
	}
	if cfg.Run.Progress && shouldColorize(errOut) {
		opts.Progress = newBarProgress(errOut)
	}

	result, err := pipeline.Run(runCtx, opts)
	if err != nil {
		var verr *inspect.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(out, renderViolations(verr))
			return services.Wrap(services.ErrValidation, "inspect", "", fmt.Sprintf("%d file(s) cannot be encoded", verr.FileCount()), nil)
		}
		return err
	}

	printResult(out, result, colorize)
	if taskErr := result.Err(); taskErr != nil {
		if cfg.Run.FailOnTaskErrors {
			return taskErr
		}
		fmt.Fprintln(out, renderStatusLine("Result", statusWarn, taskErr.Error(), colorize))
	}
	return nil
}

func printResult(w io.Writer, result *pipeline.Result, colorize bool) {
	title := "Mirror complete"
	if result.DryRun {
		title = "Dry run (nothing written)"
	}
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, renderSummary(result))
	if len(result.Failures) > 0 {
		fmt.Fprintln(w, renderFailures(result.Failures))
	}
	if result.DryRun {
		fmt.Fprintln(w, renderStatusLine("Next step", statusInfo, "rerun with an output directory to write the mirror", colorize))
		return
	}
	if len(result.Failures) == 0 {
		fmt.Fprintln(w, renderStatusLine("Result", statusOK, "all tasks succeeded", colorize))
	}
}
