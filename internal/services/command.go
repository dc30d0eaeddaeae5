package services

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes an external binary and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecCommand runs the binary and folds stderr into the returned error.
func ExecCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return output, fmt.Errorf("%s: %w", name, err)
		}
		return output, fmt.Errorf("%s: %w: %s", name, err, lastLines(detail, 20))
	}
	return output, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
