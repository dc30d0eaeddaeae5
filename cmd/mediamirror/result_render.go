package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mediamirror/internal/inspect"
	"mediamirror/internal/pipeline"
	"mediamirror/internal/taskrunner"
)

func renderSummary(result *pipeline.Result) string {
	c := result.Counts
	verb := func(done, planned string) string {
		if result.DryRun {
			return planned
		}
		return done
	}
	copied := strconv.Itoa(c.Copied)
	if !result.DryRun && c.BytesCopied > 0 {
		copied += " (" + humanize.Bytes(uint64(c.BytesCopied)) + ")"
	}
	rows := [][]string{
		{verb("Directories created", "Directories"), strconv.Itoa(c.Directories)},
		{verb("Files copied", "Files to copy"), copied},
		{verb("Videos encoded", "Videos to encode"), strconv.Itoa(c.Encoded)},
		{verb("Subtitles converted", "Subtitles to convert"), strconv.Itoa(c.Subtitles)},
	}
	if !result.DryRun {
		rows = append(rows,
			[]string{"Subtitle tracks extracted", strconv.Itoa(c.Sidecars)},
			[]string{"Skipped (already present)", strconv.Itoa(c.Skipped)},
			[]string{"Failed", strconv.Itoa(c.Failed)},
		)
	}
	rows = append(rows, []string{"Elapsed", formatDuration(result.Duration)})
	return renderTable([]string{"Item", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}

func renderFailures(failures taskrunner.Errors) string {
	rows := make([][]string, 0, len(failures))
	for _, label := range failures.Labels() {
		rows = append(rows, []string{label, firstLine(failures[label].Error())})
	}
	return renderTable([]string{"Failed task", "Error"}, rows, nil)
}

func renderViolations(verr *inspect.ValidationError) string {
	var rows [][]string
	for _, reason := range verr.Reasons() {
		for _, path := range verr.Violations[reason] {
			rows = append(rows, []string{reason, path})
		}
	}
	return renderTable([]string{"Problem", "File"}, rows, nil)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
