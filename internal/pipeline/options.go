package pipeline

import (
	"log/slog"

	"mediamirror/internal/config"
	"mediamirror/internal/inspect"
	"mediamirror/internal/journal"
	"mediamirror/internal/transcode"
)

// Stage names, in execution order.
const (
	StageInventory = "inventory"
	StageInspect   = "inspect"
	StageDirs      = "directories"
	StageCopy      = "copy"
	StageEncode    = "encode"
	StageSubtitles = "subtitles"
)

// Progress receives stage and task notifications. Methods are called from
// worker goroutines and must be safe for concurrent use.
type Progress interface {
	StageStarted(stage string, total int)
	TaskDone(stage, label string, err error)
	StageFinished(stage string)
}

// Options configures one run.
type Options struct {
	// Source is the directory to mirror.
	Source string
	// Output is the destination root. Empty means dry run.
	Output string

	Config     *config.Config
	Prober     inspect.Prober
	Transcoder transcode.Transcoder
	// Journal is optional.
	Journal  *journal.Store
	Progress Progress
	Logger   *slog.Logger
}

// DryRun reports whether the run stops after validation.
func (o Options) DryRun() bool {
	return o.Output == ""
}

type noopProgress struct{}

func (noopProgress) StageStarted(string, int)       {}
func (noopProgress) TaskDone(string, string, error) {}
func (noopProgress) StageFinished(string)           {}
