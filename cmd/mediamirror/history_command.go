package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediamirror/internal/journal"
	"mediamirror/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var onlyFailed bool
	var prune int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent runs, or the tasks of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("prune") {
				removed, err := store.Prune(cmd.Context(), prune)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderStatusLine("Prune", statusOK, fmt.Sprintf("removed %d run(s)", removed), shouldColorize(out)))
				return nil
			}

			if len(args) == 1 {
				return showRun(cmd, store, strings.TrimSpace(args[0]), onlyFailed)
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					humanize.Time(run.StartedAt),
					runStatusLabel(run),
					strconv.Itoa(run.Counts.Encoded),
					strconv.Itoa(run.Counts.Copied),
					strconv.Itoa(run.Counts.Failed),
					run.SourceDir,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Status", "Encoded", "Copied", "Failed", "Source"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	cmd.Flags().BoolVar(&onlyFailed, "failed", false, "Only list failed tasks when showing a run")
	cmd.Flags().IntVar(&prune, "prune", 0, "Delete all but the newest N runs")
	return cmd
}

func showRun(cmd *cobra.Command, store *journal.Store, id string, onlyFailed bool) error {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	if run == nil {
		return services.Wrap(services.ErrNotFound, "history", "show", "run "+id, nil)
	}
	tasks, err := store.Tasks(cmd.Context(), run.ID, onlyFailed)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Source", statusInfo, run.SourceDir, colorize))
	if run.DryRun {
		fmt.Fprintln(out, renderStatusLine("Output", statusInfo, "(dry run)", colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Output", statusInfo, run.OutputDir, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(run.Status), runStatusLabel(*run), colorize))
	if run.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, run.Error, colorize))
	}

	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks recorded")
		return nil
	}
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{
			task.Label,
			task.Kind,
			string(task.Status),
			formatDuration(task.Duration),
			valueOrDash(firstLine(task.Error)),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Task", "Kind", "Status", "Took", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func runStatusLabel(run journal.Run) string {
	label := string(run.Status)
	if run.DryRun {
		label += " (dry run)"
	}
	if d := run.Duration(); d > 0 {
		label += " in " + formatDuration(d)
	}
	return label
}

func runStatusKind(status journal.RunStatus) statusKind {
	switch status {
	case journal.RunCompleted:
		return statusOK
	case journal.RunPartial:
		return statusWarn
	case journal.RunFailed:
		return statusError
	default:
		return statusInfo
	}
}
