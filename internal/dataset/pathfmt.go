package dataset

import (
	"fmt"
	"regexp"
	"strconv"
)

var pathFieldPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(?::(0?)(\d*)d)?\}`)

// formatPath expands {name} and {name:03d} fields of a path template.
func formatPath(template string, values map[string]any) (string, error) {
	var missing string
	out := pathFieldPattern.ReplaceAllStringFunc(template, func(field string) string {
		m := pathFieldPattern.FindStringSubmatch(field)
		name, zero, width := m[1], m[2], m[3]
		value, ok := values[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return field
		}
		switch v := value.(type) {
		case int:
			if width == "" {
				return strconv.Itoa(v)
			}
			verb := "%" + zero + width + "d"
			return fmt.Sprintf(verb, v)
		default:
			return fmt.Sprint(v)
		}
	})
	if missing != "" {
		return "", fmt.Errorf("path template %q: unknown field %q", template, missing)
	}
	return out, nil
}
