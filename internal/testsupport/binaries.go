package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// StubBinaries writes each script as an executable named after its key and
// prepends the directory to PATH for the duration of the test.
func StubBinaries(t *testing.T, scripts map[string]string) string {
	t.Helper()

	binDir := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	for name, script := range scripts {
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return binDir
}

// FFmpegStub answers -version and -encoders like a VP9-capable ffmpeg and
// otherwise writes a marker into its last argument.
const FFmpegStub = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version 7.1-stub Copyright (c) 2000-2024"
  exit 0
fi
if [ "$2" = "-encoders" ]; then
  printf ' V....D libvpx-vp9           libvpx VP9\n A....D libvorbis            libvorbis\n S..... webvtt               WebVTT subtitle\n'
  exit 0
fi
for last; do :; done
printf 'encoded' > "$last"
`

// FFprobeStub reports one 1080p video stream and one audio stream for every file.
const FFprobeStub = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffprobe version 7.1-stub Copyright (c) 2007-2024"
  exit 0
fi
cat <<'REPORT'
[STREAM]
index=0
codec_name=h264
codec_type=video
width=1920
height=1080
avg_frame_rate=24000/1001
[/STREAM]
[STREAM]
index=1
codec_name=aac
codec_type=audio
TAG:language=eng
[/STREAM]
[FORMAT]
duration=10.000000
size=1024
[/FORMAT]
REPORT
`
