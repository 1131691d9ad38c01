package prompts

import (
	"os"
	"strings"
	"testing"
)

func TestStoreReadWrite(t *testing.T) {
	store := NewStore(t.TempDir() + "/prompts")

	text, err := store.Read(SubtaskExamplesFile)
	if err != nil || text != "" {
		t.Fatalf("missing file should read empty, got %q, %v", text, err)
	}
	if err := store.Write(SubtaskExamplesFile, "pick up cup\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	text, err = store.Read(SubtaskExamplesFile)
	if err != nil || text != "pick up cup\n" {
		t.Fatalf("Read = %q, %v", text, err)
	}
	entries, err := os.ReadDir(store.dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the prompt file, found %d entries", len(entries))
	}
}

func TestLabelExamplesSkipsCommentsAndCaps(t *testing.T) {
	var b strings.Builder
	b.WriteString("# style: short imperative phrases\n\n")
	for i := 0; i < 70; i++ {
		b.WriteString("  label \n")
	}
	got := LabelExamples(b.String())
	lines := strings.Split(got, "\n")
	if len(lines) != MaxLabelExamples {
		t.Fatalf("got %d examples, want %d", len(lines), MaxLabelExamples)
	}
	if lines[0] != "label" {
		t.Fatalf("unexpected first example %q", lines[0])
	}
}

func TestDemoBlock(t *testing.T) {
	text := `# demos
What color is the cup?
Red.

How many blocks are on the table?
Three.
Is the gripper open?
Yes.
dangling line`

	demos := ParseDemos(text)
	if len(demos) != 3 || demos[1].Answer != "Three." {
		t.Fatalf("unexpected demos %+v", demos)
	}
	want := "Q: What color is the cup?\nA: Red.\nQ: How many blocks are on the table?\nA: Three."
	if got := DemoBlock(text, 2); got != want {
		t.Fatalf("DemoBlock = %q, want %q", got, want)
	}
	if got := DemoBlock(text, 0); got != "Q: What color is the cup?\nA: Red." {
		t.Fatalf("DemoBlock(0) = %q", got)
	}
	if got := DemoBlock("", 5); got != "" {
		t.Fatalf("empty demos = %q", got)
	}
}
