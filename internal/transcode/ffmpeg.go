package transcode

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"mediamirror/internal/fileutil"
	"mediamirror/internal/logging"
	"mediamirror/internal/services"
)

// DefaultCRF is the VP9 constant quality level.
const DefaultCRF = 30

// encodeArgs follow the video arguments on every VP9 encode.
var encodeArgs = []string{
	"-c:a", "libvorbis",
	"-b:a", "128k",
	"-g", "240",
	"-cpu-used", "1",
	"-deadline", "good",
	"-tile-columns", "6",
	"-frame-parallel", "1",
	"-auto-alt-ref", "1",
	"-lag-in-frames", "25",
	"-max_muxing_queue_size", "9999",
	"-f", "webm",
}

// subtitleArgs convert a text track to WebVTT. The muxer is named explicitly
// because the output file carries the partial suffix.
var subtitleArgs = []string{"-c:s", "webvtt", "-f", "webvtt"}

// FFmpeg encodes VP9/Vorbis WebM and WebVTT subtitles by running ffmpeg.
type FFmpeg struct {
	binary string
	crf    int
	run    services.CommandRunner
	logger *slog.Logger
}

// Option customizes an FFmpeg backend.
type Option func(*FFmpeg)

// WithCommandRunner overrides how the ffmpeg binary is executed.
func WithCommandRunner(run services.CommandRunner) Option {
	return func(f *FFmpeg) {
		if run != nil {
			f.run = run
		}
	}
}

// WithCRF sets the constant quality level. Values outside 0..63 are ignored.
func WithCRF(crf int) Option {
	return func(f *FFmpeg) {
		if crf >= 0 && crf <= 63 {
			f.crf = crf
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FFmpeg) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFFmpeg builds the ffmpeg backend. An empty binary means "ffmpeg".
func NewFFmpeg(binary string, opts ...Option) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	f := &FFmpeg{
		binary: binary,
		crf:    DefaultCRF,
		run:    services.ExecCommand,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "ffmpeg")
	return f
}

// TranscodeArgs returns the full ffmpeg argument list for req, writing to output.
func (f *FFmpeg) TranscodeArgs(req Request, output string) []string {
	args := baseArgs(req.Input)
	args = append(args, VideoArgs(req.Info, f.crf)...)
	args = append(args, encodeArgs...)
	args = append(args, "-map", "0:"+strconv.Itoa(req.Selection.Video))
	for _, idx := range req.Selection.Audio {
		args = append(args, "-map", "0:"+strconv.Itoa(idx))
	}
	if len(req.Selection.Subtitles) > 0 {
		for _, idx := range req.Selection.SubtitleIndices() {
			args = append(args, "-map", "0:"+strconv.Itoa(idx))
		}
		args = append(args, "-c:s", "webvtt")
	}
	return append(args, output)
}

// ExtractSubtitleArgs returns the arguments that write one subtitle stream of
// input as WebVTT.
func ExtractSubtitleArgs(input, output string, streamIndex int) []string {
	args := baseArgs(input)
	args = append(args, "-map", "0:"+strconv.Itoa(streamIndex))
	args = append(args, subtitleArgs...)
	return append(args, output)
}

// ConvertSubtitleArgs returns the arguments that convert a standalone
// subtitle file to WebVTT.
func ConvertSubtitleArgs(input, output string) []string {
	args := baseArgs(input)
	args = append(args, subtitleArgs...)
	return append(args, output)
}

// Transcode encodes req.Input into req.Output.
func (f *FFmpeg) Transcode(ctx context.Context, req Request) error {
	if req.Input == "" || req.Output == "" {
		return services.Wrap(services.ErrValidation, "encode", "transcode", "input and output paths required", nil)
	}
	partial := fileutil.PartialPath(req.Output)
	return f.execute(ctx, "transcode", req.Input, req.Output, f.TranscodeArgs(req, partial))
}

// ExtractSubtitle writes stream streamIndex of input to output as WebVTT.
func (f *FFmpeg) ExtractSubtitle(ctx context.Context, input, output string, streamIndex int) error {
	partial := fileutil.PartialPath(output)
	return f.execute(ctx, "extract subtitle", input, output, ExtractSubtitleArgs(input, partial, streamIndex))
}

// ConvertSubtitle converts a subtitle file to WebVTT.
func (f *FFmpeg) ConvertSubtitle(ctx context.Context, input, output string) error {
	partial := fileutil.PartialPath(output)
	return f.execute(ctx, "convert subtitle", input, output, ConvertSubtitleArgs(input, partial))
}

func (f *FFmpeg) execute(ctx context.Context, op, input, output string, args []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	partial := args[len(args)-1]
	f.logger.DebugContext(ctx, "running ffmpeg",
		logging.String("operation", op),
		logging.String("input", input),
		logging.String("args", strings.Join(args, " ")),
	)
	if _, err := f.run(ctx, f.binary, args...); err != nil {
		fileutil.Discard(partial)
		if errors.Is(err, context.Canceled) {
			return err
		}
		return services.Wrap(services.ErrExternalTool, "encode", op, input, err)
	}
	if err := fileutil.Publish(partial, output); err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", op, "publish "+output, err)
	}
	return nil
}

func baseArgs(input string) []string {
	return []string{"-i", input, "-y", "-nostats", "-loglevel", "warning"}
}

var _ Transcoder = (*FFmpeg)(nil)
