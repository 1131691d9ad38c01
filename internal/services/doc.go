// Package services defines shared utilities consumed by the annotation
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp episode indexes, stage names, run IDs and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (not found, tool failure, malformed response, bad input) with
//     errors.Is.
//
// The llm subpackage holds the inference endpoint client.
package services
