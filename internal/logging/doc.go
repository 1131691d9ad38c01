// Package logging builds the annotator's slog loggers.
//
// Console output puts the component in front of the message and flattens
// groups into dotted keys (window.start=2); JSON output uses ts/level/msg.
// File outputs are size-rotated. WithContext tags a logger with the episode,
// stage and run ID stored on a context, and WarnWithContext/ErrorWithContext
// guarantee every warning names an event type and a next step.
package logging
