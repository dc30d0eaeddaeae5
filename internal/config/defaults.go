package config

const (
	defaultConfigPath        = "~/.config/mediamirror/config.toml"
	defaultBackend           = "ffmpeg"
	defaultVideoExtension    = "webm"
	defaultSubtitleExtension = "vtt"
	defaultCRF               = 30
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir(),
		},
		Encoding: Encoding{
			Backend:            defaultBackend,
			AllowMultipleAudio: true,
			VideoExtension:     defaultVideoExtension,
			SubtitleExtension:  defaultSubtitleExtension,
			CRF:                defaultCRF,
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
		},
		Run: Run{
			FailOnTaskErrors: true,
			Progress:         true,
			Journal:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
