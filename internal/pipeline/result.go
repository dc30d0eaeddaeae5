package pipeline

import (
	"fmt"
	"time"

	"mediamirror/internal/journal"
	"mediamirror/internal/services"
	"mediamirror/internal/taskrunner"
	"mediamirror/internal/workplan"
)

// Counts tallies what a run did. In a dry run only the planned counts are set.
type Counts struct {
	Directories int
	Copied      int
	Encoded     int
	Subtitles   int
	// Sidecars counts subtitle tracks extracted from videos.
	Sidecars    int
	Skipped     int
	Failed      int
	BytesCopied int64
}

// Result summarizes a run.
type Result struct {
	RunID    string
	DryRun   bool
	Plan     workplan.Plan
	Counts   Counts
	Failures taskrunner.Errors
	Duration time.Duration
}

// Err returns an error wrapping services.ErrTaskFailures when any task
// failed, and nil otherwise.
func (r *Result) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d tasks failed", services.ErrTaskFailures, len(r.Failures), r.Plan.FileCount())
}

func (c Counts) journal() journal.Counts {
	return journal.Counts{
		Directories: c.Directories,
		Copied:      c.Copied,
		Encoded:     c.Encoded,
		Subtitles:   c.Subtitles + c.Sidecars,
		Skipped:     c.Skipped,
		Failed:      c.Failed,
		BytesCopied: c.BytesCopied,
	}
}
