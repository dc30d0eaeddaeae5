package ffprobe

import (
	"context"
	"errors"
	"strings"

	"mediamirror/internal/services"
)

// Prober executes ffprobe against media files.
type Prober struct {
	binary string
	run    services.CommandRunner
}

// Option customizes a Prober.
type Option func(*Prober)

// WithCommandRunner overrides how the ffprobe binary is executed.
func WithCommandRunner(run services.CommandRunner) Option {
	return func(p *Prober) {
		if run != nil {
			p.run = run
		}
	}
}

// NewProber returns a Prober for binary ("ffprobe" when empty).
func NewProber(binary string, opts ...Option) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	p := &Prober{binary: binary, run: services.ExecCommand}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Args returns the ffprobe arguments used for path.
func Args(path string) []string {
	return []string{"-hide_banner", "-show_streams", "-show_format", path}
}

// Probe runs ffprobe on path and parses the report.
func (p *Prober) Probe(ctx context.Context, path string) (*StreamInfo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrValidation, "inspect", "ffprobe", "empty path", nil)
	}
	output, err := p.run(ctx, p.binary, Args(path)...)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrExternalTool, "inspect", "ffprobe", path, err)
	}
	info, err := ParseReportBytes(output)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "inspect", "parse ffprobe output", path, err)
	}
	return info, nil
}
