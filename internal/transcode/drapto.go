package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"

	"mediamirror/internal/fileutil"
	"mediamirror/internal/logging"
	"mediamirror/internal/services"
)

// DraptoExtension is the container drapto always produces.
const DraptoExtension = "mkv"

// encodeFunc runs one drapto encode into outputDir.
type encodeFunc func(ctx context.Context, input, outputDir string, rep draptolib.Reporter) error

// Drapto encodes AV1 through the drapto library. Drapto chooses streams on
// its own; subtitle work is delegated to ffmpeg.
type Drapto struct {
	subtitles *FFmpeg
	logger    *slog.Logger
	encode    encodeFunc
}

// NewDrapto builds the drapto backend. subtitles handles sidecar extraction
// and subtitle conversion.
func NewDrapto(subtitles *FFmpeg, logger *slog.Logger) *Drapto {
	if subtitles == nil {
		subtitles = NewFFmpeg("", WithLogger(logger))
	}
	return &Drapto{
		subtitles: subtitles,
		logger:    logging.NewComponentLogger(logger, "drapto"),
		encode:    libraryEncode,
	}
}

func libraryEncode(ctx context.Context, input, outputDir string, rep draptolib.Reporter) error {
	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return err
	}
	_, err = encoder.EncodeWithReporter(ctx, input, outputDir, rep)
	return err
}

// Transcode encodes req.Input into a scratch directory beside req.Output and
// renames the result into place.
func (d *Drapto) Transcode(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Input) == "" || strings.TrimSpace(req.Output) == "" {
		return services.Wrap(services.ErrValidation, "encode", "drapto", "input and output paths required", nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	scratch, err := os.MkdirTemp(filepath.Dir(req.Output), ".drapto-")
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "drapto", "create scratch directory", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	rep := newLogReporter(d.logger.With(logging.String("input", req.Input)))
	if err := d.encode(ctx, req.Input, scratch, rep); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return services.Wrap(services.ErrExternalTool, "encode", "drapto", req.Input, err)
	}

	produced := filepath.Join(scratch, draptoOutputName(req.Input))
	if _, err := os.Stat(produced); err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "drapto", "expected output missing", err)
	}
	if err := fileutil.Publish(produced, req.Output); err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "drapto", "publish "+req.Output, err)
	}
	return nil
}

// ExtractSubtitle delegates to ffmpeg.
func (d *Drapto) ExtractSubtitle(ctx context.Context, input, output string, streamIndex int) error {
	return d.subtitles.ExtractSubtitle(ctx, input, output, streamIndex)
}

// ConvertSubtitle delegates to ffmpeg.
func (d *Drapto) ConvertSubtitle(ctx context.Context, input, output string) error {
	return d.subtitles.ConvertSubtitle(ctx, input, output)
}

// draptoOutputName mirrors how drapto names its output inside outputDir.
func draptoOutputName(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return stem + "." + DraptoExtension
}

var _ Transcoder = (*Drapto)(nil)

// logReporter forwards drapto events to a logger.
type logReporter struct {
	logger     *slog.Logger
	lastBucket int
}

func newLogReporter(logger *slog.Logger) *logReporter {
	return &logReporter{logger: logger, lastBucket: -1}
}

func (r *logReporter) Hardware(s draptolib.HardwareSummary) {
	r.logger.Debug("drapto hardware info", logging.String("hardware_hostname", strings.TrimSpace(s.Hostname)))
}

func (r *logReporter) Initialization(s draptolib.InitializationSummary) {
	r.logger.Debug("drapto video info",
		logging.String("video_duration", strings.TrimSpace(s.Duration)),
		logging.String("video_resolution", strings.TrimSpace(s.Resolution)),
		logging.String("video_category", strings.TrimSpace(s.Category)),
		logging.String("video_dynamic_range", strings.TrimSpace(s.DynamicRange)),
		logging.String("video_audio", strings.TrimSpace(s.AudioDescription)),
	)
}

func (r *logReporter) StageProgress(s draptolib.StageProgress) {
	r.logger.Debug("drapto stage",
		logging.String("stage", strings.TrimSpace(s.Stage)),
		logging.String("message", strings.TrimSpace(s.Message)),
		logging.Any("percent", float64(s.Percent)),
	)
}

func (r *logReporter) CropResult(s draptolib.CropSummary) {
	status := "no crop required"
	if s.Disabled {
		status = "auto-crop disabled"
	} else if s.Required {
		status = "crop applied"
	}
	r.logger.Debug("drapto crop detection",
		logging.String("crop_status", status),
		logging.String("crop_params", strings.TrimSpace(s.Crop)),
	)
}

func (r *logReporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.logger.Debug("drapto encoding config",
		logging.Any("encoder", s.Encoder),
		logging.Any("preset", s.Preset),
		logging.Any("quality", s.Quality),
		logging.Any("audio_codec", s.AudioCodec),
	)
}

func (r *logReporter) EncodingStarted(totalFrames uint64) {
	r.logger.Info("drapto encoding started", logging.Int64("total_frames", int64(totalFrames)))
}

// EncodingProgress logs once per ten percent.
func (r *logReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	bucket := int(float64(s.Percent)) / 10
	if bucket <= r.lastBucket {
		return
	}
	r.lastBucket = bucket
	r.logger.Info("drapto encoding progress",
		logging.String("percent", fmt.Sprintf("%.0f%%", float64(s.Percent))),
		logging.Any("speed", float64(s.Speed)),
		logging.Duration("eta", s.ETA),
	)
}

func (r *logReporter) ValidationComplete(s draptolib.ValidationSummary) {
	if s.Passed {
		r.logger.Debug("drapto validation passed", logging.Int("steps", len(s.Steps)))
		return
	}
	logging.WarnWithContext(r.logger, "drapto validation failed", "drapto_validation",
		logging.Int("steps", len(s.Steps)),
		logging.String(logging.FieldImpact, "encoded output may not match the source"),
	)
}

func (r *logReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.logger.Info("drapto encoding complete",
		logging.Int64("original_bytes", int64(s.OriginalSize)),
		logging.Int64("encoded_bytes", int64(s.EncodedSize)),
		logging.Any("elapsed", s.TotalTime),
	)
}

func (r *logReporter) Warning(message string) {
	logging.WarnWithContext(r.logger, "drapto warning", "drapto_warning",
		logging.String("message", strings.TrimSpace(message)),
	)
}

func (r *logReporter) Error(e draptolib.ReporterError) {
	attrs := []logging.Attr{
		logging.String("title", strings.TrimSpace(e.Title)),
		logging.String("message", strings.TrimSpace(e.Message)),
	}
	if hint := strings.TrimSpace(e.Suggestion); hint != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
	}
	logging.ErrorWithContext(r.logger, "drapto error", "drapto_error", attrs...)
}

func (r *logReporter) OperationComplete(message string) {
	r.logger.Debug("drapto operation complete", logging.String("message", strings.TrimSpace(message)))
}

func (r *logReporter) BatchStarted(s draptolib.BatchStartInfo) {
	r.logger.Debug("drapto batch started", logging.Any("total_files", s.TotalFiles))
}

func (r *logReporter) FileProgress(s draptolib.FileProgressContext) {
	r.logger.Debug("drapto file progress",
		logging.Any("current_file", s.CurrentFile),
		logging.Any("total_files", s.TotalFiles),
	)
}

func (r *logReporter) BatchComplete(s draptolib.BatchSummary) {
	r.logger.Debug("drapto batch complete",
		logging.Any("successful", s.SuccessfulCount),
		logging.Any("total_files", s.TotalFiles),
	)
}

var _ draptolib.Reporter = (*logReporter)(nil)
