package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2
	alt3    string   // ISO 639-2/B where it differs
	display string   // name written into prompts
	words   []string // accepted spelled-out forms
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese", "mandarin"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
}

var index map[string]*entry

func init() {
	index = make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		index[e.code2] = e
		index[e.code3] = e
		if e.alt3 != "" {
			index[e.alt3] = e
		}
		for _, w := range e.words {
			index[w] = e
		}
	}
}

// lookup accepts ISO codes, spelled-out names and region-tagged codes such
// as "en-US" or "zh_CN".
func lookup(value string) *entry {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	if e, ok := index[value]; ok {
		return e
	}
	if base, _, found := strings.Cut(strings.ReplaceAll(value, "_", "-"), "-"); found {
		return index[base]
	}
	return nil
}

// ToISO2 converts a recognized language option to its ISO 639-1 code.
// Unrecognized input yields "".
func ToISO2(value string) string {
	if e := lookup(value); e != nil {
		return e.code2
	}
	return ""
}

// PromptName is the form of a language option substituted into prompt
// templates: the display name when recognized, otherwise the trimmed option
// as given (so "auto" stays "auto").
func PromptName(value string) string {
	if e := lookup(value); e != nil {
		return e.display
	}
	return strings.TrimSpace(value)
}
