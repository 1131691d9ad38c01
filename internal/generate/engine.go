package generate

import (
	"context"
	"errors"
	"log/slog"

	"annotator/internal/logging"
	"annotator/internal/services"
	"annotator/internal/services/llm"
)

// Chatter is the inference contract the loop depends on.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message, opts llm.ChatOptions) (string, error)
}

// Window is one visited span of the episode timeline, in local seconds.
type Window struct {
	Step  int
	Start float64
	End   float64
}

// Request is one chat round trip.
type Request struct {
	Messages []llm.Message
	Options  llm.ChatOptions
}

// Strategy specializes the sliding-window loop.
type Strategy[R any] interface {
	// Done reports whether the loop stops before visiting cursor.
	Done(cursor float64, step int) bool
	// Window returns the span visited at cursor.
	Window(cursor float64, step int) Window
	// Request builds the chat request for w.
	Request(ctx context.Context, w Window) (Request, error)
	// Parse validates a reply. Returning a Skip error drops the window.
	Parse(w Window, reply string) (R, error)
	// Recover maps a failed window to a substitute record (nil error), a
	// skip (Skip error) or a fatal error.
	Recover(w Window, err error) (R, error)
}

// Schedule fixes where the loop starts, how far it advances per step and how
// many steps it expects (for progress only).
type Schedule struct {
	Start  float64
	Stride float64
	Total  int
}

// ProgressFunc receives completed and expected window counts.
type ProgressFunc func(done, total int)

// Engine holds the collaborators shared by every run.
type Engine struct {
	Chat     Chatter
	Logger   *slog.Logger
	Progress ProgressFunc
}

type skipError struct{ reason string }

func (e *skipError) Error() string { return "skip: " + e.reason }

// Skip marks a window as intentionally dropped.
func Skip(reason string) error { return &skipError{reason: reason} }

// IsSkip reports whether err marks a dropped window.
func IsSkip(err error) bool {
	var s *skipError
	return errors.As(err, &s)
}

func skipReason(err error) string {
	var s *skipError
	if errors.As(err, &s) {
		return s.reason
	}
	return ""
}

// Run visits windows from sched.Start until the strategy reports done. A fatal
// window error aborts the run and discards earlier records.
func Run[R any](ctx context.Context, e Engine, s Strategy[R], sched Schedule) ([]R, error) {
	if e.Chat == nil {
		return nil, services.Wrap(services.ErrConfiguration, "generate", "run", "chat client unavailable", nil)
	}
	if sched.Stride <= 0 {
		return nil, services.Wrap(services.ErrValidation, "generate", "run", "stride must be positive", nil)
	}
	logger := logging.WithContext(ctx, e.Logger)

	var out []R
	cursor := sched.Start
	for step := 0; !s.Done(cursor, step); step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w := s.Window(cursor, step)
		record, err := attempt(ctx, e.Chat, s, w)
		if err != nil && !IsSkip(err) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			record, err = s.Recover(w, err)
		}
		switch {
		case err == nil:
			out = append(out, record)
			logger.Debug("window accepted",
				logging.Int("step", w.Step),
				logging.Window(w.Start, w.End),
			)
		case IsSkip(err):
			logger.Info("window skipped", logging.Args(append(
				logging.DecisionAttrs("window", "skip", skipReason(err)),
				logging.Int("step", w.Step),
				logging.Window(w.Start, w.End),
			)...)...)
		default:
			logging.ErrorWithContext(logger, "window failed", "window_failed",
				logging.Int("step", w.Step),
				logging.Window(w.Start, w.End),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
				logging.Error(err),
			)
			return nil, err
		}
		if e.Progress != nil {
			e.Progress(step+1, sched.Total)
		}
		cursor += sched.Stride
	}
	return out, nil
}

func attempt[R any](ctx context.Context, chat Chatter, s Strategy[R], w Window) (R, error) {
	var zero R
	req, err := s.Request(ctx, w)
	if err != nil {
		return zero, err
	}
	reply, err := chat.Chat(ctx, req.Messages, req.Options)
	if err != nil {
		return zero, err
	}
	return s.Parse(w, reply)
}
