package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"annotator/internal/services"
)

// ErrNoStructuredOutput is returned when no extraction strategy yields a JSON
// object. It matches services.ErrMalformedResponse under errors.Is.
var ErrNoStructuredOutput = fmt.Errorf("%w: could not extract structured output", services.ErrMalformedResponse)

var fencedObjectPattern = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")

type extractor struct {
	name      string
	candidate func(text string) (string, bool)
}

// extractors run in order; the first candidate that parses as an object wins.
var extractors = []extractor{
	{name: "direct", candidate: func(text string) (string, bool) { return text, true }},
	{name: "fenced", candidate: fencedCandidate},
	{name: "braces", candidate: braceCandidate},
}

func fencedCandidate(text string) (string, bool) {
	match := fencedObjectPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return "", false
	}
	return match[1], true
}

func braceCandidate(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// ExtractObject recovers a JSON object from free-form model text.
func ExtractObject(text string) (map[string]any, error) {
	_, obj, err := extractCandidate(text)
	return obj, err
}

// DecodeObject extracts a JSON object from text and decodes it into target.
func DecodeObject(text string, target any) error {
	candidate, _, err := extractCandidate(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(candidate), target); err != nil {
		return fmt.Errorf("%w: %v (payload snippet: %s)", services.ErrMalformedResponse, err, summarizePayloadSnippet(candidate))
	}
	return nil
}

func extractCandidate(text string) (string, map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", nil, fmt.Errorf("%w (payload snippet: <empty>)", ErrNoStructuredOutput)
	}
	for _, ex := range extractors {
		candidate, ok := ex.candidate(trimmed)
		if !ok {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err != nil || obj == nil {
			continue
		}
		return candidate, obj, nil
	}
	return "", nil, fmt.Errorf("%w (payload snippet: %s)", ErrNoStructuredOutput, summarizePayloadSnippet(trimmed))
}

// StringField reads obj[key] as trimmed text. Numbers and booleans are
// formatted; missing or null values yield "".
func StringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Truthy interprets loosely typed model flags such as "skip": true, "skip": 1
// or "skip": "yes".
func Truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1":
			return true
		}
	}
	return false
}
