package services

import "context"

type contextKey string

const (
	episodeKey   contextKey = "episode_index"
	stageKey     contextKey = "stage"
	runIDKey     contextKey = "run_id"
	requestIDKey contextKey = "request_id"
)

// WithEpisode annotates context with the episode being processed.
func WithEpisode(ctx context.Context, episode int) context.Context {
	return context.WithValue(ctx, episodeKey, episode)
}

// EpisodeFromContext extracts the episode index if present.
func EpisodeFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(episodeKey).(int)
	return v, ok
}

// WithStage annotates context with the pipeline stage name (subtasks, vqa, export).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with the generation run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the generation run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
