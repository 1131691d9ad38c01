package logging

import (
	"context"
	"log/slog"

	"annotator/internal/services"
)

const (
	FieldComponent    = "component"
	FieldEpisodeIndex = "episode_index"
	FieldVideoKey     = "video_key"
	// FieldStage is "subtasks", "vqa" or "export".
	FieldStage = "stage"
	// FieldRunID identifies one generate call; every window it issues shares it.
	FieldRunID         = "run_id"
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to an operator.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries services.Kind for failed operations.
	FieldErrorKind = "error_kind"
	// FieldImpact states what a warning means for the current run.
	FieldImpact = "impact"
	// FieldDecisionType names the decision recorded by DecisionAttrs.
	FieldDecisionType = "decision_type"
)

// ContextFields returns the identifiers stored on ctx by the services
// package, in a fixed order.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if episode, ok := services.EpisodeFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldEpisodeIndex, episode))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if runID, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, runID))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns logger tagged with ContextFields(ctx).
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
