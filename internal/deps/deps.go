// Package deps reports whether the external binaries a run needs are installed.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"mediamirror/internal/services"
)

// Requirement defines an external dependency mediamirror relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// Encoders lists ffmpeg encoder names that must be compiled in.
	Encoders []string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// Checker resolves requirements against the local system.
type Checker struct {
	run services.CommandRunner
}

// NewChecker returns a Checker. A nil runner uses services.ExecCommand.
func NewChecker(run services.CommandRunner) *Checker {
	if run == nil {
		run = services.ExecCommand
	}
	return &Checker{run: run}
}

// CheckBinaries evaluates the provided requirements without executing anything.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status, _ := lookup(req)
		results = append(results, status)
	}
	return results
}

// Check evaluates requirements and, for binaries that resolve, reads their
// version banner and verifies required encoders.
func (c *Checker) Check(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status, resolved := lookup(req)
		if status.Available {
			c.inspect(ctx, req, resolved, &status)
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}

func lookup(req Requirement) (Status, string) {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status, ""
	}
	resolved, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status, ""
	}
	status.Available = true
	return status, resolved
}

func (c *Checker) inspect(ctx context.Context, req Requirement, resolved string, status *Status) {
	if out, err := c.run(ctx, resolved, "-version"); err == nil {
		status.Version = parseVersion(string(out))
	}
	if len(req.Encoders) == 0 {
		return
	}
	out, err := c.run(ctx, resolved, "-hide_banner", "-encoders")
	if err != nil {
		status.Available = false
		status.Detail = fmt.Sprintf("list encoders: %v", err)
		return
	}
	var absent []string
	for _, enc := range req.Encoders {
		if !hasEncoder(string(out), enc) {
			absent = append(absent, enc)
		}
	}
	if len(absent) > 0 {
		status.Available = false
		status.Detail = "missing encoders: " + strings.Join(absent, ", ")
	}
}

// parseVersion extracts "7.1" from "ffmpeg version 7.1 Copyright ...".
func parseVersion(banner string) string {
	line, _, _ := strings.Cut(banner, "\n")
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

// hasEncoder scans `ffmpeg -encoders` output, whose rows look like
// " V....D libvpx-vp9           libvpx VP9 (codec vp9)".
func hasEncoder(listing, name string) bool {
	for line := range strings.SplitSeq(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
