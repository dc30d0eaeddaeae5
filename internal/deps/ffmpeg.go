package deps

import (
	"mediamirror/internal/config"
)

// Requirements lists the binaries a run with cfg needs.
func Requirements(cfg *config.Config) []Requirement {
	ffmpeg := Requirement{
		Name:        "FFmpeg",
		Command:     cfg.Encoding.FFmpegBinary,
		Description: "Encodes video and converts subtitles",
		Encoders:    []string{"webvtt"},
	}
	if cfg.Encoding.Backend == config.BackendFFmpeg {
		ffmpeg.Encoders = append(ffmpeg.Encoders, "libvpx-vp9", "libvorbis")
	} else {
		ffmpeg.Description = "Converts subtitles and runs under Drapto"
	}
	return []Requirement{
		ffmpeg,
		{
			Name:        "FFprobe",
			Command:     cfg.Encoding.FFprobeBinary,
			Description: "Inspects streams before encoding",
		},
	}
}
