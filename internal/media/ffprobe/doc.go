// Package ffprobe runs ffprobe and parses its default flat section output.
//
// Key types:
//   - StreamInfo: classified stream lists plus container metadata
//   - Stream: one stream record with its raw key/value fields
//   - StreamKind: closed set of stream kinds derived from codec_type
//   - Rational: a frame rate such as 30000/1001
//
// Primary entry points:
//   - Prober.Probe: executes ffprobe and returns the parsed StreamInfo
//   - ParseReport: parses captured ffprobe output
package ffprobe
