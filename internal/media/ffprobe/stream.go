package ffprobe

import (
	"strconv"
	"strings"
)

// StreamKind classifies a stream by its codec_type.
type StreamKind int

const (
	KindUnknown StreamKind = iota
	KindVideo
	KindAudio
	KindSubtitle
	KindAttachment
)

// KindOf maps an ffprobe codec_type to a StreamKind.
func KindOf(codecType string) StreamKind {
	switch strings.ToLower(strings.TrimSpace(codecType)) {
	case "video":
		return KindVideo
	case "audio":
		return KindAudio
	case "subtitle":
		return KindSubtitle
	case "attachment":
		return KindAttachment
	default:
		return KindUnknown
	}
}

func (k StreamKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindSubtitle:
		return "subtitle"
	case KindAttachment:
		return "attachment"
	default:
		return "unknown"
	}
}

// Image codecs that ffprobe reports as video streams (cover art and the like).
var imageStreamCodecs = map[string]bool{
	"mjpeg": true,
	"pgm":   true,
	"png":   true,
	"ppm":   true,
	"tiff":  true,
}

// Stream is one [STREAM] record. Fields keeps every key (lowercased, tag:
// prefix stripped) so callers can read values this type does not surface.
type Stream struct {
	Index     int
	CodecName string
	CodecType string
	Kind      StreamKind
	Fields    map[string]string
}

// Field returns the raw value for key, or "".
func (s Stream) Field(key string) string {
	return s.Fields[key]
}

// Language returns the stream language tag, or "" when absent.
func (s Stream) Language() string {
	if lang := strings.TrimSpace(s.Fields["lang"]); lang != "" {
		return lang
	}
	return strings.TrimSpace(s.Fields["language"])
}

// Dimensions returns width and height when both are present and positive.
func (s Stream) Dimensions() (int, int, bool) {
	w, errW := strconv.Atoi(strings.TrimSpace(s.Fields["width"]))
	h, errH := strconv.Atoi(strings.TrimSpace(s.Fields["height"]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// FrameRate parses avg_frame_rate.
func (s Stream) FrameRate() (Rational, error) {
	return ParseRational(s.Fields["avg_frame_rate"])
}

// isImage reports whether a video-typed stream is really an embedded picture.
func (s Stream) isImage() bool {
	if imageStreamCodecs[s.CodecName] {
		return true
	}
	return strings.HasPrefix(strings.ToLower(s.Fields["mimetype"]), "image")
}

// StreamInfo is the classified result of probing one file.
type StreamInfo struct {
	Video    []Stream
	Audio    []Stream
	Subtitle []Stream
	Other    []Stream
	Metadata map[string]string
}

// VideoStreamCount returns the number of video streams discovered.
func (i *StreamInfo) VideoStreamCount() int { return len(i.Video) }

// AudioStreamCount returns the number of audio streams discovered.
func (i *StreamInfo) AudioStreamCount() int { return len(i.Audio) }

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (i *StreamInfo) DurationSeconds() float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(i.Metadata["duration"]), 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (i *StreamInfo) SizeBytes() int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(i.Metadata["size"]), 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func (i *StreamInfo) route(s Stream) {
	switch s.Kind {
	case KindVideo:
		if s.isImage() {
			i.Other = append(i.Other, s)
			return
		}
		i.Video = append(i.Video, s)
	case KindAudio:
		i.Audio = append(i.Audio, s)
	case KindSubtitle:
		if _, ok := s.Fields["lang"]; !ok {
			if lang, ok := s.Fields["language"]; ok {
				s.Fields["lang"] = lang
			}
		}
		i.Subtitle = append(i.Subtitle, s)
	case KindAttachment, KindUnknown:
		i.Other = append(i.Other, s)
	}
}
