package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mediamirror/internal/config"
	"mediamirror/internal/media/ffprobe"
	"mediamirror/internal/services"
)

// ErrUnknownCodec is returned when a subtitle stream uses a codec that is in
// neither the convertible nor the unconvertible list.
var ErrUnknownCodec = errors.New("unknown subtitle codec")

// Request describes one video encode.
type Request struct {
	Input     string
	Output    string
	Selection Selection
	// Info is the probe result for Input; backends that choose bitrate from
	// resolution read it.
	Info *ffprobe.StreamInfo
}

// Transcoder is implemented by each encoding backend.
type Transcoder interface {
	Transcode(ctx context.Context, req Request) error
	ExtractSubtitle(ctx context.Context, input, output string, streamIndex int) error
	ConvertSubtitle(ctx context.Context, input, output string) error
}

// Options configures a backend built by New.
type Options struct {
	Backend       string
	FFmpegBinary  string
	CRF           int
	Logger        *slog.Logger
	CommandRunner services.CommandRunner
}

// OptionsFromConfig maps configuration onto backend options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Backend:      cfg.Encoding.Backend,
		FFmpegBinary: cfg.Encoding.FFmpegBinary,
		CRF:          cfg.Encoding.CRF,
		Logger:       logger,
	}
}

// New returns the backend named by opts.Backend.
func New(opts Options) (Transcoder, error) {
	ffmpeg := NewFFmpeg(opts.FFmpegBinary,
		WithCRF(opts.CRF),
		WithLogger(opts.Logger),
		WithCommandRunner(opts.CommandRunner),
	)
	switch opts.Backend {
	case "", config.BackendFFmpeg:
		return ffmpeg, nil
	case config.BackendDrapto:
		return NewDrapto(ffmpeg, opts.Logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "encode", "select backend",
			fmt.Sprintf("unknown backend %q", opts.Backend), nil)
	}
}
