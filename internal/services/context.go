package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	stageKey     contextKey = "stage"
	taskLabelKey contextKey = "task"
)

// withValue leaves ctx untouched for empty values so lookups never return "".
func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key contextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithRunID tags ctx with the id shared by every log line and journal row of a run.
func WithRunID(ctx context.Context, id string) context.Context {
	return withValue(ctx, runIDKey, id)
}

func RunIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, runIDKey) }

// WithStage tags ctx with the pipeline stage (copy, encode, subtitles).
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return lookup(ctx, stageKey) }

// WithTaskLabel tags ctx with the label of the running task.
func WithTaskLabel(ctx context.Context, label string) context.Context {
	return withValue(ctx, taskLabelKey, label)
}

func TaskLabelFromContext(ctx context.Context) (string, bool) { return lookup(ctx, taskLabelKey) }
