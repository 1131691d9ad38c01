package textutil

import (
	"reflect"
	"testing"
)

func TestNormalizeQuestion(t *testing.T) {
	tests := map[string]string{
		"What color is the CUP?":            "what color is the cup",
		"  what   color, is the cup ?? ":    "what color is the cup",
		"Where's the\tred block?":           "wheres the red block",
		"杯子是什么颜色？":                          "杯子是什么颜色",
		"Café: is it open?":                 "café is it open",
		"Is item #3 on the left-hand side?": "is item 3 on the lefthand side",
	}
	for in, want := range tests {
		if got := NormalizeQuestion(in); got != want {
			t.Fatalf("NormalizeQuestion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeQuestionKeepsDistinctCJKQuestions(t *testing.T) {
	a := NormalizeQuestion("杯子是什么颜色？")
	b := NormalizeQuestion("抽屉是开着的吗？")
	if a == "" || b == "" || a == b {
		t.Fatalf("expected distinct non-empty keys, got %q and %q", a, b)
	}
}

func TestContainsCJK(t *testing.T) {
	if !ContainsCJK("the 杯子 is red") {
		t.Fatal("expected CJK detection")
	}
	if ContainsCJK("the cup is red, café") {
		t.Fatal("unexpected CJK detection")
	}
}

func TestIsEnglish(t *testing.T) {
	for _, lang := range []string{"en", "EN", "en-US", "English"} {
		if !IsEnglish(lang) {
			t.Fatalf("IsEnglish(%q) should be true", lang)
		}
	}
	for _, lang := range []string{"", "auto", "zh", "zh-CN", "fr"} {
		if IsEnglish(lang) {
			t.Fatalf("IsEnglish(%q) should be false", lang)
		}
	}
}

func TestNonCommentLines(t *testing.T) {
	text := "# header\n\npick up cup\n  place cup  \n# note\nopen drawer\n"
	if got := NonCommentLines(text, 0); !reflect.DeepEqual(got, []string{"pick up cup", "place cup", "open drawer"}) {
		t.Fatalf("unexpected lines %v", got)
	}
	if got := NonCommentLines(text, 2); len(got) != 2 {
		t.Fatalf("expected limit 2, got %v", got)
	}
}
