package testsupport

import (
	"path/filepath"
	"testing"

	"mediamirror/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config whose state directory lives in a per-test temp dir.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Run.Progress = false
	cfg.Encoding.Workers = 2

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWorkers overrides the worker pool size.
func WithWorkers(n int) ConfigOption {
	return func(c *config.Config) {
		c.Encoding.Workers = n
	}
}

// WithoutJournal disables the run journal.
func WithoutJournal() ConfigOption {
	return func(c *config.Config) {
		c.Run.Journal = false
	}
}

// WithSingleAudio rejects files with more than one audio stream.
func WithSingleAudio() ConfigOption {
	return func(c *config.Config) {
		c.Encoding.AllowMultipleAudio = false
	}
}
