// Package inspect probes video files before any output is written and
// rejects the whole batch when any file has an unsupported stream layout.
package inspect

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"mediamirror/internal/inventory"
	"mediamirror/internal/logging"
	"mediamirror/internal/media/ffprobe"
	"mediamirror/internal/services"
	"mediamirror/internal/taskrunner"
)

// Violation reasons.
const (
	ReasonNoVideo         = "no video streams"
	ReasonNoAudio         = "no audio streams"
	ReasonMultipleVideo   = "multiple video streams"
	ReasonMultipleAudio   = "multiple audio streams"
	ReasonUnknownSubtitle = "unknown subtitle codec"
	ReasonProbeFailed     = "probe failed"
)

// Prober returns stream information for one file.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffprobe.StreamInfo, error)
}

// Policy controls which stream layouts are acceptable.
type Policy struct {
	AllowMultipleAudio bool
}

// ValidationError lists every offending file grouped by reason.
type ValidationError struct {
	Violations map[string][]string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("stream validation failed:")
	for _, reason := range e.Reasons() {
		files := e.Violations[reason]
		fmt.Fprintf(&b, "\n  %s (%d):", reason, len(files))
		for _, path := range files {
			b.WriteString("\n    ")
			b.WriteString(path)
		}
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return services.ErrValidation }

// FileCount returns the number of distinct offending files.
func (e *ValidationError) FileCount() int {
	seen := make(map[string]bool)
	for _, files := range e.Violations {
		for _, f := range files {
			seen[f] = true
		}
	}
	return len(seen)
}

// Reasons returns the violated reasons in sorted order.
func (e *ValidationError) Reasons() []string {
	reasons := make([]string, 0, len(e.Violations))
	for reason := range e.Violations {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	return reasons
}

// Inspector probes files and validates their streams.
type Inspector struct {
	prober  Prober
	policy  Policy
	workers int
	logger  *slog.Logger
	onProbe func(label string, err error)
}

// Option customizes an Inspector.
type Option func(*Inspector)

// WithProbeHook calls fn after each file is probed, from the worker
// goroutine, with the probe error if any.
func WithProbeHook(fn func(label string, err error)) Option {
	return func(i *Inspector) {
		i.onProbe = fn
	}
}

// New constructs an Inspector. workers <= 0 uses the task runner default.
func New(prober Prober, policy Policy, workers int, logger *slog.Logger, opts ...Option) *Inspector {
	i := &Inspector{
		prober:  prober,
		policy:  policy,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "inspect"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inspect probes every file, attaches its StreamInfo, and returns a
// *ValidationError naming every violation once all files have been checked.
func (i *Inspector) Inspect(ctx context.Context, files []*inventory.File) error {
	if len(files) == 0 {
		return nil
	}

	results := make([]*ffprobe.StreamInfo, len(files))
	probeErrs := make([]error, len(files))
	tasks := make([]taskrunner.Task, len(files))
	for idx, file := range files {
		tasks[idx] = taskrunner.Task{
			Label: file.RelPath,
			Action: func(ctx context.Context) error {
				info, err := i.prober.Probe(ctx, file.Path)
				results[idx] = info
				probeErrs[idx] = err
				if i.onProbe != nil {
					i.onProbe(file.RelPath, err)
				}
				return nil
			},
		}
	}
	taskrunner.Run(ctx, tasks, taskrunner.Options{Workers: i.workers, Logger: i.logger})
	if err := ctx.Err(); err != nil {
		return err
	}

	report := newReport()
	for idx, file := range files {
		if err := probeErrs[idx]; err != nil {
			i.logger.Debug("probe failed", logging.String("path", file.Path), logging.Error(err))
			report.add(ReasonProbeFailed, file.Path)
			continue
		}
		info := results[idx]
		if info == nil {
			info = &ffprobe.StreamInfo{Metadata: map[string]string{}}
		}
		file.Streams = info
		for _, reason := range Check(info, i.policy) {
			report.add(reason, file.Path)
		}
	}

	if report.empty() {
		i.logger.Info("stream inspection passed", logging.Int("files", len(files)))
		return nil
	}
	return &ValidationError{Violations: report.violations}
}

// Check returns the reasons info violates policy, in a fixed order.
func Check(info *ffprobe.StreamInfo, policy Policy) []string {
	var reasons []string
	switch n := len(info.Video); {
	case n == 0:
		reasons = append(reasons, ReasonNoVideo)
	case n > 1:
		reasons = append(reasons, ReasonMultipleVideo)
	}
	switch n := len(info.Audio); {
	case n == 0:
		reasons = append(reasons, ReasonNoAudio)
	case n > 1 && !policy.AllowMultipleAudio:
		reasons = append(reasons, ReasonMultipleAudio)
	}
	for _, sub := range info.Subtitle {
		if ffprobe.ClassifySubtitleCodec(sub.CodecName) == ffprobe.SubtitleUnknown {
			reasons = append(reasons, ReasonUnknownSubtitle)
			break
		}
	}
	return reasons
}

type report struct {
	violations map[string][]string
	seen       map[string]map[string]bool
}

func newReport() *report {
	return &report{violations: map[string][]string{}, seen: map[string]map[string]bool{}}
}

func (r *report) add(reason, path string) {
	if r.seen[reason] == nil {
		r.seen[reason] = map[string]bool{}
	}
	if r.seen[reason][path] {
		return
	}
	r.seen[reason][path] = true
	r.violations[reason] = append(r.violations[reason], path)
}

func (r *report) empty() bool {
	return len(r.violations) == 0
}
