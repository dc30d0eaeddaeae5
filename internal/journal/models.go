package journal

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	// RunPartial means the run finished but at least one task failed.
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// TaskStatus is the outcome of one task.
type TaskStatus string

const (
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskSkipped   TaskStatus = "skipped"
)

// Run is one invocation of the mirror.
type Run struct {
	ID         string
	SourceDir  string
	OutputDir  string
	Backend    string
	DryRun     bool
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Counts     Counts
	Error      string
}

// Duration is zero while the run is still open.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts summarizes what a run did.
type Counts struct {
	Directories int
	Copied      int
	Encoded     int
	Subtitles   int
	Skipped     int
	Failed      int
	BytesCopied int64
}

// Task is the recorded outcome of one task.
type Task struct {
	RunID      string
	Label      string
	Kind       string
	Output     string
	Status     TaskStatus
	Error      string
	Duration   time.Duration
	FinishedAt time.Time
}
