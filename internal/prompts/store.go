package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"annotator/internal/fileutil"
	"annotator/internal/textutil"
)

// File names inside the prompts directory.
const (
	SubtaskExamplesFile = "subtask_prompt.txt"
	VQADemosFile        = "vqa_prompt.txt"

	// MaxLabelExamples bounds the examples sent with each window request.
	MaxLabelExamples = 60
)

// Store reads and writes prompt text files in one directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the location of name inside the store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Read returns the contents of name, or "" when the file does not exist.
func (s *Store) Read(name string) (string, error) {
	if s == nil {
		return "", nil
	}
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read prompt %s: %w", name, err)
	}
	return string(data), nil
}

// Write replaces name atomically.
func (s *Store) Write(name, text string) error {
	if err := fileutil.WriteFileAtomic(s.Path(name), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write prompt %s: %w", name, err)
	}
	return nil
}

// LabelExamples returns the example block for subtask requests.
func LabelExamples(text string) string {
	return strings.Join(textutil.NonCommentLines(text, MaxLabelExamples), "\n")
}

// Demo is one example question/answer pair.
type Demo struct {
	Question string
	Answer   string
}

// ParseDemos pairs consecutive non-comment lines; a trailing odd line is
// ignored.
func ParseDemos(text string) []Demo {
	lines := textutil.NonCommentLines(text, 0)
	demos := make([]Demo, 0, len(lines)/2)
	for i := 0; i+1 < len(lines); i += 2 {
		demos = append(demos, Demo{Question: lines[i], Answer: lines[i+1]})
	}
	return demos
}

// DemoBlock renders at most max demos (at least one) as "Q: ...\nA: ..." lines.
func DemoBlock(text string, max int) string {
	demos := ParseDemos(text)
	if max < 1 {
		max = 1
	}
	if len(demos) > max {
		demos = demos[:max]
	}
	lines := make([]string, 0, len(demos))
	for _, d := range demos {
		lines = append(lines, "Q: "+d.Question+"\nA: "+d.Answer)
	}
	return strings.Join(lines, "\n")
}
