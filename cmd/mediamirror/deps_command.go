package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediamirror/internal/deps"
	"mediamirror/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that ffmpeg and ffprobe are installed with the required encoders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			statuses := deps.NewChecker(ctx.runner).Check(cmd.Context(), deps.Requirements(cfg))

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ready"
				if !s.Available {
					state = "missing"
				}
				rows = append(rows, []string{s.Name, s.Command, valueOrDash(s.Version), state, valueOrDash(s.Detail)})
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Command", "Version", "Status", "Detail"}, rows, nil))

			missing := deps.Missing(statuses)
			if len(missing) == 0 {
				fmt.Fprintln(out, renderStatusLine("Dependencies", statusOK, "all required tools available", shouldColorize(out)))
				return nil
			}
			names := make([]string, 0, len(missing))
			for _, m := range missing {
				names = append(names, m.Name)
			}
			return services.Wrap(services.ErrNotFound, "deps", "check", "missing "+strings.Join(names, ", "), nil)
		},
	}
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
