// Package services defines shared utilities consumed by the pipeline stages
// and the external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and task labels
//     for logging and journaling.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent exit codes (validation vs execution).
//   - A CommandRunner abstraction so external tool execution (ffmpeg, ffprobe)
//     can be replaced in tests.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
