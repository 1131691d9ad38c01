package preflight

import (
	"context"
	"fmt"
	"strings"

	"annotator/internal/config"
	"annotator/internal/deps"
	"annotator/internal/services/llm"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

// Options adjusts RunAll.
type Options struct {
	// SkipInference leaves the endpoint unprobed (offline doctor runs).
	SkipInference bool
}

// RunAll executes every applicable check for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, statusResult(status))
	}

	results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	results = append(results, CheckDirectoryAccess("Prompts directory", cfg.Paths.PromptsDir))
	if strings.TrimSpace(cfg.Dataset.Root) != "" {
		results = append(results, CheckDataset(cfg.Dataset.Root))
	}

	if opts.SkipInference {
		results = append(results, Result{Name: "Inference endpoint", Passed: true, Optional: true, Detail: "skipped"})
		return results
	}
	results = append(results, CheckLLM(ctx, "Inference endpoint", ClientConfig(cfg)))
	return results
}

// ClientConfig maps the inference section onto the client configuration.
func ClientConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		APIKey:            cfg.Inference.APIKey,
		BaseURL:           cfg.Inference.BaseURL,
		Model:             cfg.Inference.Model,
		Referer:           cfg.Inference.Referer,
		Title:             cfg.Inference.Title,
		TimeoutSeconds:    cfg.Inference.TimeoutSeconds,
		RequestsPerMinute: cfg.Inference.RequestsPerMinute,
	}
}

func statusResult(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	switch {
	case status.Available && status.Version != "":
		result.Detail = status.Version
	case status.Available:
		result.Detail = status.Path
	default:
		result.Detail = status.Detail
		if status.Description != "" {
			result.Detail = fmt.Sprintf("%s (%s)", status.Detail, status.Description)
		}
	}
	return result
}
