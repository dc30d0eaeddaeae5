package config

import (
	"errors"
	"fmt"
)

// Backend names accepted by encoding.backend.
const (
	BackendFFmpeg = "ffmpeg"
	BackendDrapto = "drapto"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEncoding() error {
	switch c.Encoding.Backend {
	case BackendFFmpeg, BackendDrapto:
	default:
		return fmt.Errorf("encoding.backend must be %q or %q, got %q", BackendFFmpeg, BackendDrapto, c.Encoding.Backend)
	}
	if c.Encoding.Workers < 0 {
		return errors.New("encoding.workers must be zero (auto) or positive")
	}
	if c.Encoding.CRF < 0 || c.Encoding.CRF > 63 {
		return fmt.Errorf("encoding.crf must be between 0 and 63, got %d", c.Encoding.CRF)
	}
	// Each backend's muxer fixes the container; subtitles always go through
	// ffmpeg's webvtt muxer.
	want := map[string]string{BackendFFmpeg: "webm", BackendDrapto: "mkv"}[c.Encoding.Backend]
	if c.Encoding.VideoExtension != want {
		return fmt.Errorf("encoding.video_extension must be %q for the %s backend, got %q", want, c.Encoding.Backend, c.Encoding.VideoExtension)
	}
	if c.Encoding.SubtitleExtension != "vtt" {
		return fmt.Errorf("encoding.subtitle_extension must be \"vtt\", got %q", c.Encoding.SubtitleExtension)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}
