package pipeline

import (
	"context"
	"errors"
	"time"

	"mediamirror/internal/fileutil"
	"mediamirror/internal/inventory"
	"mediamirror/internal/journal"
	"mediamirror/internal/language"
	"mediamirror/internal/logging"
	"mediamirror/internal/taskrunner"
	"mediamirror/internal/transcode"
	"mediamirror/internal/workplan"
)

// Task kinds recorded in the journal.
const (
	kindCopy     = "copy"
	kindEncode   = "encode"
	kindSubtitle = "subtitle"
)

type copyJob struct {
	file *inventory.File
	dst  string
}

type sidecar struct {
	stream int
	lang   string
	dst    string
}

type videoJob struct {
	file      *inventory.File
	dst       string
	selection transcode.Selection
	// selectErr fails the task without running the encoder.
	selectErr error
	sidecars  []sidecar
}

type subtitleJob struct {
	file *inventory.File
	dst  string
}

type jobs struct {
	copies    []copyJob
	videos    []videoJob
	subtitles []subtitleJob
}

// planJobs computes every output path before any task starts. Verbatim
// copies keep their names and are reserved first so generated names route
// around them.
func (r *run) planJobs(plan workplan.Plan) jobs {
	cfg := r.opts.Config
	var out jobs

	for _, f := range plan.FilesToCopy {
		dst := r.resolver.Resolve(f.RelPath, "")
		r.resolver.Reserve(dst)
		out.copies = append(out.copies, copyJob{file: f, dst: dst})
	}

	for _, f := range plan.VideosToEncode {
		job := videoJob{file: f, dst: r.resolver.Claim(f.RelPath, cfg.Encoding.VideoExtension)}
		job.selection, job.selectErr = transcode.SelectStreams(f.Streams, cfg.Encoding.AllowMultipleAudio)
		if job.selectErr == nil {
			for _, sub := range job.selection.Subtitles {
				tag := language.SidecarTag(sub.Language())
				job.sidecars = append(job.sidecars, sidecar{
					stream: sub.Index,
					lang:   tag,
					dst:    r.resolver.ClaimSidecarFor(job.dst, tag, cfg.Encoding.SubtitleExtension),
				})
			}
		}
		out.videos = append(out.videos, job)
	}

	for _, f := range plan.SubtitlesToConvert {
		out.subtitles = append(out.subtitles, subtitleJob{
			file: f,
			dst:  r.resolver.Claim(f.RelPath, cfg.Encoding.SubtitleExtension),
		})
	}
	return out
}

// tracked wraps fn so its outcome is journaled. fn reports whether it wrote
// anything; a nil error with nothing written is a skip.
func (r *run) tracked(kind string, file *inventory.File, dst string, fn func(context.Context) (bool, error)) taskrunner.Task {
	return taskrunner.Task{
		Label: file.RelPath,
		Action: func(ctx context.Context) error {
			start := time.Now()
			wrote, err := fn(ctx)
			task := journal.Task{
				Label:    file.RelPath,
				Kind:     kind,
				Output:   dst,
				Status:   journal.TaskSucceeded,
				Duration: time.Since(start),
			}
			switch {
			case err != nil:
				task.Status = journal.TaskFailed
				task.Error = err.Error()
			case !wrote:
				task.Status = journal.TaskSkipped
			}
			r.recordTask(ctx, task)
			return err
		},
	}
}

func (r *run) copyTasks(list []copyJob) []taskrunner.Task {
	tasks := make([]taskrunner.Task, 0, len(list))
	for _, job := range list {
		tasks = append(tasks, r.tracked(kindCopy, job.file, job.dst, func(ctx context.Context) (bool, error) {
			if r.resolver.Exists(job.dst) {
				r.skip(ctx, job.dst)
				return false, nil
			}
			n, err := fileutil.CopyFile(job.file.Path, job.dst)
			if err != nil {
				return false, err
			}
			r.copied.Add(1)
			r.bytes.Add(n)
			return true, nil
		}))
	}
	return tasks
}

func (r *run) encodeTasks(list []videoJob) []taskrunner.Task {
	tasks := make([]taskrunner.Task, 0, len(list))
	for _, job := range list {
		tasks = append(tasks, r.tracked(kindEncode, job.file, job.dst, func(ctx context.Context) (bool, error) {
			return r.encodeVideo(ctx, job)
		}))
	}
	return tasks
}

// encodeVideo encodes the main output when missing, then extracts each
// missing sidecar. Sidecar failures do not stop the remaining sidecars.
func (r *run) encodeVideo(ctx context.Context, job videoJob) (bool, error) {
	if job.selectErr != nil {
		return false, job.selectErr
	}
	wrote := false
	if r.resolver.Exists(job.dst) {
		r.skip(ctx, job.dst)
	} else {
		err := r.opts.Transcoder.Transcode(ctx, transcode.Request{
			Input:     job.file.Path,
			Output:    job.dst,
			Selection: job.selection,
			Info:      job.file.Streams,
		})
		if err != nil {
			return false, err
		}
		r.encoded.Add(1)
		wrote = true
	}

	var errs []error
	for _, sc := range job.sidecars {
		if r.resolver.Exists(sc.dst) {
			r.skip(ctx, sc.dst)
			continue
		}
		if err := r.opts.Transcoder.ExtractSubtitle(ctx, job.file.Path, sc.dst, sc.stream); err != nil {
			errs = append(errs, err)
			continue
		}
		r.sidecars.Add(1)
		wrote = true
		r.log(ctx).Debug("subtitle track extracted",
			logging.Int("stream", sc.stream),
			logging.String("language", language.DisplayName(sc.lang)),
			logging.String("output", sc.dst),
		)
	}
	return wrote, errors.Join(errs...)
}

func (r *run) subtitleTasks(list []subtitleJob) []taskrunner.Task {
	tasks := make([]taskrunner.Task, 0, len(list))
	for _, job := range list {
		tasks = append(tasks, r.tracked(kindSubtitle, job.file, job.dst, func(ctx context.Context) (bool, error) {
			if r.resolver.Exists(job.dst) {
				r.skip(ctx, job.dst)
				return false, nil
			}
			if err := r.opts.Transcoder.ConvertSubtitle(ctx, job.file.Path, job.dst); err != nil {
				return false, err
			}
			r.subtitles.Add(1)
			return true, nil
		}))
	}
	return tasks
}
