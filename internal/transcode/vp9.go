package transcode

import (
	"strconv"

	"mediamirror/internal/media/ffprobe"
)

// highFrameRate is the integer frame rate above which the high bitrate column
// applies.
const highFrameRate = 40

// bitrateTarget holds kbps targets for one standard resolution.
type bitrateTarget struct {
	low  int
	high int
}

type resolution struct {
	width  int
	height int
}

var targetBitrates = map[resolution]bitrateTarget{
	{640, 360}:   {low: 276, high: 750},
	{1280, 720}:  {low: 1024, high: 1800},
	{1920, 1080}: {low: 1800, high: 3000},
	{2560, 1440}: {low: 6000, high: 9000},
	{3840, 2160}: {low: 12000, high: 18000},
}

// TargetBitrate returns the kbps target for a standard resolution.
func TargetBitrate(width, height int, highFPS bool) (int, bool) {
	t, ok := targetBitrates[resolution{width, height}]
	if !ok {
		return 0, false
	}
	if highFPS {
		return t.high, true
	}
	return t.low, true
}

// VideoArgs returns the VP9 encoder arguments for info. Files with exactly
// one video stream at a standard resolution get a constrained quality target;
// everything else gets plain constant quality.
func VideoArgs(info *ffprobe.StreamInfo, crf int) []string {
	args := []string{"-c:v", "libvpx-vp9"}
	quality := strconv.Itoa(crf)

	target, ok := targetFor(info)
	if !ok {
		return append(args, "-crf", quality, "-b:v", "0")
	}
	return append(args,
		"-b:v", kbps(target),
		"-minrate", kbps(ceilPercent(target, 50)),
		"-maxrate", kbps(ceilPercent(target, 145)),
		"-crf", quality,
	)
}

func targetFor(info *ffprobe.StreamInfo) (int, bool) {
	if info == nil || len(info.Video) != 1 {
		return 0, false
	}
	video := info.Video[0]
	width, height, ok := video.Dimensions()
	if !ok {
		return 0, false
	}
	return TargetBitrate(width, height, isHighFrameRate(video))
}

// isHighFrameRate treats an unparseable rate as low.
func isHighFrameRate(s ffprobe.Stream) bool {
	rate, err := s.FrameRate()
	if err != nil {
		return false
	}
	return rate.Floor() > highFrameRate
}

func ceilPercent(value, percent int) int {
	return (value*percent + 99) / 100
}

func kbps(v int) string {
	return strconv.Itoa(v) + "k"
}
