package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEncoding()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogFile) != "" {
		if c.Paths.LogFile, err = expandPath(c.Paths.LogFile); err != nil {
			return fmt.Errorf("paths.log_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeEncoding() {
	c.Encoding.Backend = strings.ToLower(strings.TrimSpace(c.Encoding.Backend))
	if c.Encoding.Backend == "" {
		c.Encoding.Backend = defaultBackend
	}
	c.Encoding.VideoExtension = normalizeExtension(c.Encoding.VideoExtension, defaultVideoExtension)
	c.Encoding.SubtitleExtension = normalizeExtension(c.Encoding.SubtitleExtension, defaultSubtitleExtension)
	if c.Encoding.Workers < 0 {
		c.Encoding.Workers = 0
	}
	c.Encoding.FFmpegBinary = strings.TrimSpace(c.Encoding.FFmpegBinary)
	if c.Encoding.FFmpegBinary == "" {
		c.Encoding.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encoding.FFprobeBinary = strings.TrimSpace(c.Encoding.FFprobeBinary)
	if c.Encoding.FFprobeBinary == "" {
		c.Encoding.FFprobeBinary = defaultFFprobeBinary
	}
}

func normalizeExtension(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.TrimLeft(value, ".")
	if value == "" {
		return fallback
	}
	return value
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
