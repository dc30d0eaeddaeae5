// Package transcode turns source media into the output formats.
//
// Two backends implement Transcoder: FFmpeg encodes VP9/Vorbis WebM with
// constrained quality for standard resolutions, and Drapto encodes AV1
// Matroska through the drapto library. Subtitle extraction and conversion to
// WebVTT always run through ffmpeg.
//
// Every output is written to a ".partial" sibling and renamed into place
// only after the encoder exits cleanly.
package transcode
