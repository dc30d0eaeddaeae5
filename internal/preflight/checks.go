package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"mediamirror/internal/config"
	"mediamirror/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and grants the
// requested access mode (unix.R_OK, unix.W_OK, unix.X_OK bits).
func CheckDirectoryAccess(name, path string, mode uint32) Result {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s ok)", path, describeMode(mode))}
}

// CheckOutputWritable accepts an existing writable directory, or a missing
// one whose nearest existing ancestor is writable.
func CheckOutputWritable(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path, unix.R_OK|unix.W_OK|unix.X_OK)
	}
	parent := filepath.Dir(path)
	for {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
		}
		parent = next
	}
	res := CheckDirectoryAccess(name, parent, unix.W_OK|unix.X_OK)
	if !res.Passed {
		return res
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created under %s)", path, parent)}
}

// CheckOutputOutsideSource rejects an output directory, or the mirror root
// created under it, that lies inside the source tree, which a later run
// would scan as input.
func CheckOutputOutsideSource(source, output string) Result {
	const name = "Output location"
	src, errSrc := filepath.Abs(source)
	out, errOut := filepath.Abs(output)
	if errSrc != nil || errOut != nil {
		return Result{Name: name, Detail: "cannot resolve absolute paths"}
	}
	if resolved, err := filepath.EvalSymlinks(src); err == nil {
		src = resolved
	}
	if resolved, err := evalExisting(out); err == nil {
		out = resolved
	}
	if within(src, out) {
		return Result{Name: name, Detail: fmt.Sprintf("%s is inside the source tree %s", out, src)}
	}
	// The mirror lands in out/<basename of source>.
	if mirrorRoot := filepath.Join(out, filepath.Base(src)); within(src, mirrorRoot) {
		return Result{Name: name, Detail: fmt.Sprintf("mirror root %s would be inside the source tree %s", mirrorRoot, src)}
	}
	return Result{Name: name, Passed: true, Detail: "outside source tree"}
}

// within reports whether path equals root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// evalExisting resolves symlinks in the longest existing prefix of path.
func evalExisting(path string) (string, error) {
	var tail []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		next := filepath.Dir(current)
		if next == current {
			return path, err
		}
		tail = append([]string{filepath.Base(current)}, tail...)
		current = next
	}
}

// CheckSystemDeps reports the external binaries required by cfg.
func CheckSystemDeps(ctx context.Context, cfg *config.Config, checker *deps.Checker) []Result {
	if checker == nil {
		checker = deps.NewChecker(nil)
	}
	statuses := checker.Check(ctx, deps.Requirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		detail := s.Detail
		if s.Available {
			detail = s.Command
			if s.Version != "" {
				detail += " (" + s.Version + ")"
			}
		}
		results = append(results, Result{Name: s.Name, Passed: s.Available || s.Optional, Detail: detail})
	}
	return results
}

func describeMode(mode uint32) string {
	var parts []string
	if mode&unix.R_OK != 0 {
		parts = append(parts, "read")
	}
	if mode&unix.W_OK != 0 {
		parts = append(parts, "write")
	}
	if len(parts) == 0 {
		return "access"
	}
	return strings.Join(parts, "/")
}
