// Package fileutil holds the copy and publish helpers used for output files.
//
// Every output is first written to "<dst>.partial" and renamed into place
// once complete, so an interrupted run never leaves a truncated file that a
// rerun would mistake for finished work.
package fileutil

import (
	"fmt"
	"io"
	"os"
)

// PartialSuffix marks files that are still being written.
const PartialSuffix = ".partial"

// PartialPath returns the in-progress name for dst.
func PartialPath(dst string) string {
	return dst + PartialSuffix
}

// Publish renames a completed partial file to dst.
func Publish(partial, dst string) error {
	if err := os.Rename(partial, dst); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("publish %s: %w", dst, err)
	}
	return nil
}

// Discard removes a partial file left by a failed write. Missing files are ignored.
func Discard(partial string) {
	_ = os.Remove(partial)
}

// CopyFile copies src to dst through a partial file, keeping the source
// permission bits. It returns the number of bytes copied.
func CopyFile(src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	return CopyFileMode(src, dst, info.Mode().Perm())
}

// CopyFileMode copies src to dst through a partial file, setting mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	partial := PartialPath(dst)
	out, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(out, in)
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		Discard(partial)
		return written, fmt.Errorf("copy %s: %w", src, err)
	}
	if err := Publish(partial, dst); err != nil {
		return written, err
	}
	return written, nil
}
