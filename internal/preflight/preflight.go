package preflight

import (
	"context"
	"strings"

	"golang.org/x/sys/unix"

	"mediamirror/internal/config"
	"mediamirror/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects what RunAll verifies.
type Options struct {
	Source string
	// Output is empty for dry runs.
	Output string
	// SkipTools disables the binary checks.
	SkipTools bool
	Checker   *deps.Checker
}

// RunAll executes the checks that apply to opts.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Source directory", opts.Source, unix.R_OK|unix.X_OK),
	}
	if strings.TrimSpace(opts.Output) != "" {
		results = append(results,
			CheckOutputWritable("Output directory", opts.Output),
			CheckOutputOutsideSource(opts.Source, opts.Output),
		)
	}
	if !opts.SkipTools {
		results = append(results, CheckSystemDeps(ctx, cfg, opts.Checker)...)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
