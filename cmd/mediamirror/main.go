package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mediamirror/internal/services"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(newCommandContext())
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if helpRequested(args) {
		target := root
		if found, _, err := root.Find(args); err == nil && found != nil && found.Name() != "help" {
			target = found
		}
		_ = target.Help()
		return services.ExitUsage
	}

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return services.ExitCode(err)
	}
	return services.ExitOK
}

// helpRequested matches help, -h, --help, and any case or dash variant.
func helpRequested(args []string) bool {
	for _, arg := range args {
		switch strings.ToLower(strings.TrimLeft(arg, "-")) {
		case "help", "h":
			return true
		}
	}
	return false
}
