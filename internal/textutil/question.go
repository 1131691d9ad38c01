package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// NormalizeQuestion folds a question to the form used for duplicate
// detection: lowercased letters and digits of any script separated by single
// spaces. Punctuation and symbols are dropped.
func NormalizeQuestion(question string) string {
	lowered := lowerCaser.String(question)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ContainsCJK reports whether text contains CJK unified ideographs.
func ContainsCJK(text string) bool {
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

// IsEnglish reports whether a language setting such as "en", "en-US" or
// "English" selects English output.
func IsEnglish(lang string) bool {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return false
	}
	if strings.EqualFold(lang, "english") {
		return true
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(lang), "en")
	}
	base, _ := tag.Base()
	return base.String() == "en"
}

// NonCommentLines returns trimmed, non-empty lines that do not start with '#',
// keeping at most limit entries when limit > 0.
func NonCommentLines(text string, limit int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
