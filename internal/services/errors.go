package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool      = errors.New("external tool error")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
	ErrDatasetNotLoaded  = errors.New("dataset not loaded")
	ErrMalformedResponse = errors.New("malformed response")
	ErrBusy              = errors.New("busy")
	ErrTransient         = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error onto a short machine-readable category used in CLI
// output and log attributes.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDatasetNotLoaded):
		return "dataset_not_loaded"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExternalTool):
		return "tool_failure"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrValidation):
		return "input"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
