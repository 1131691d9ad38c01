package textutil

import (
	"errors"
	"strings"
)

var errTemplateSyntax = errors.New("template syntax")

type templateToken struct {
	literal string
	field   string
	isField bool
}

// Bind substitutes {name} placeholders in template with values. Placeholders
// without a value become empty strings, {{ and }} are literal braces, and any
// conversion or format spec after the name (":..." or "!...") is ignored.
// A template that cannot be parsed (unbalanced braces, positional "{}" or
// attribute/index fields) is returned unmodified.
func Bind(template string, values map[string]string) string {
	tokens, err := parseTemplate(template)
	if err != nil {
		return template
	}
	var b strings.Builder
	b.Grow(len(template))
	for _, tok := range tokens {
		if tok.isField {
			b.WriteString(values[tok.field])
			continue
		}
		b.WriteString(tok.literal)
	}
	return b.String()
}

// Placeholders lists the distinct field names referenced by template in
// order of first appearance.
func Placeholders(template string) ([]string, error) {
	tokens, err := parseTemplate(template)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var names []string
	for _, tok := range tokens {
		if !tok.isField {
			continue
		}
		if _, ok := seen[tok.field]; ok {
			continue
		}
		seen[tok.field] = struct{}{}
		names = append(names, tok.field)
	}
	return names, nil
}

func parseTemplate(template string) ([]templateToken, error) {
	var tokens []templateToken
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, templateToken{literal: literal.String()})
			literal.Reset()
		}
	}
	for i := 0; i < len(template); i++ {
		ch := template[i]
		switch ch {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				literal.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return nil, errTemplateSyntax
			}
			body := template[i+1 : i+1+end]
			if strings.ContainsRune(body, '{') {
				return nil, errTemplateSyntax
			}
			name := body
			if cut := strings.IndexAny(name, ":!"); cut >= 0 {
				name = name[:cut]
			}
			name = strings.TrimSpace(name)
			if name == "" || strings.ContainsAny(name, ".[]") {
				return nil, errTemplateSyntax
			}
			flush()
			tokens = append(tokens, templateToken{field: name, isField: true})
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				literal.WriteByte('}')
				i++
				continue
			}
			return nil, errTemplateSyntax
		default:
			literal.WriteByte(ch)
		}
	}
	flush()
	return tokens, nil
}
