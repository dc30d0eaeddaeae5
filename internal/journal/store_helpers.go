package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		outputDir   sql.NullString
		backend     sql.NullString
		dryRun      int
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		message     sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.SourceDir,
		&outputDir,
		&backend,
		&dryRun,
		&status,
		&startedRaw,
		&finishedRaw,
		&run.Counts.Directories,
		&run.Counts.Copied,
		&run.Counts.Encoded,
		&run.Counts.Subtitles,
		&run.Counts.Skipped,
		&run.Counts.Failed,
		&run.Counts.BytesCopied,
		&message,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.OutputDir = outputDir.String
	run.Backend = backend.String
	run.DryRun = dryRun != 0
	run.Status = RunStatus(status)
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	run.Error = message.String
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
