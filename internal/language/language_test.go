package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"english", "en"},
		{"en-US", "en"},
		{"zh_CN", "zh"},
		{"chi", "zh"},
		{"Mandarin", "zh"},
		{"fre", "fr"},
		{"auto", ""},
		{"xy", ""},
		{"", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPromptName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"zh", "Chinese"},
		{"JPN", "Japanese"},
		{"pt-BR", "Portuguese"},
		{"auto", "auto"},
		{" Klingon ", "Klingon"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PromptName(tt.input); got != tt.expected {
			t.Errorf("PromptName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
