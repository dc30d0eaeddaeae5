package transcode

import (
	"fmt"

	"mediamirror/internal/media/ffprobe"
)

// Selection lists the source stream indices an encode keeps.
type Selection struct {
	Video int
	Audio []int
	// Subtitles holds convertible text tracks, muxed into the output and
	// extracted as sidecars. Bitmap tracks are dropped.
	Subtitles []ffprobe.Stream
}

// SubtitleIndices returns the stream indices of the selected subtitles.
func (s Selection) SubtitleIndices() []int {
	out := make([]int, 0, len(s.Subtitles))
	for _, sub := range s.Subtitles {
		out = append(out, sub.Index)
	}
	return out
}

// SelectStreams picks the first video stream, the audio streams, and the
// convertible subtitle streams of info.
func SelectStreams(info *ffprobe.StreamInfo, allowMultipleAudio bool) (Selection, error) {
	if info == nil || len(info.Video) == 0 {
		return Selection{}, fmt.Errorf("select streams: no video stream")
	}
	sel := Selection{Video: info.Video[0].Index}

	for _, a := range info.Audio {
		sel.Audio = append(sel.Audio, a.Index)
		if !allowMultipleAudio {
			break
		}
	}

	for _, sub := range info.Subtitle {
		switch ffprobe.ClassifySubtitleCodec(sub.CodecName) {
		case ffprobe.SubtitleConvertible:
			sel.Subtitles = append(sel.Subtitles, sub)
		case ffprobe.SubtitleUnconvertible:
		default:
			return Selection{}, fmt.Errorf("stream %d (%s): %w", sub.Index, sub.CodecName, ErrUnknownCodec)
		}
	}
	return sel, nil
}
