// Package inventory scans a source directory into an ordered tree of
// directories and files.
//
// Entries carry their absolute path and a slash-joined path relative to the
// parent of the scanned root, so the root's own relative path is its base
// name. Within each directory, files are listed before subdirectories and both
// are sorted by name. Symlinked directories are followed; a directory that is
// already on the current descent path fails the scan with ErrCyclicDirectory.
package inventory
