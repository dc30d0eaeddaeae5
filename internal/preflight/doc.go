// Package preflight verifies that a run can start: the source tree is
// readable, the output location is writable and outside the source, and the
// external tools are installed.
//
// Checks return Result values rather than errors so the CLI can render every
// failure at once before refusing to run.
package preflight
