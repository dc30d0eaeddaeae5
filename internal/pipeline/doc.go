// Package pipeline runs one mirror of a source tree into an output tree.
//
// A run scans the source, classifies every file, probes and validates the
// videos, and stops there when no output directory is given. Otherwise it
// creates the directory skeleton and runs three task stages on the worker
// pool: verbatim copies, video encodes (with sidecar subtitle extraction),
// and subtitle conversions. Outputs that already exist are skipped, so a
// rerun only does the work an earlier run left unfinished.
//
// Everything that can be rejected is rejected before the output tree is
// touched. Failures inside the stages are isolated per task and reported in
// Result.Failures.
package pipeline
