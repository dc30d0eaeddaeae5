package ffprobe

// SubtitleSupport describes whether a subtitle codec can become WebVTT.
type SubtitleSupport int

const (
	SubtitleUnknown SubtitleSupport = iota
	SubtitleConvertible
	SubtitleUnconvertible
)

var subtitleCodecs = map[string]SubtitleSupport{
	"ass":      SubtitleConvertible,
	"mov_text": SubtitleConvertible,
	"srt":      SubtitleConvertible,
	"ssa":      SubtitleConvertible,
	"subrip":   SubtitleConvertible,
	// Bitmap formats.
	"dvd_subtitle":      SubtitleUnconvertible,
	"hdmv_pgs_subtitle": SubtitleUnconvertible,
}

// ClassifySubtitleCodec reports how a subtitle codec_name is handled.
func ClassifySubtitleCodec(codec string) SubtitleSupport {
	return subtitleCodecs[codec]
}
