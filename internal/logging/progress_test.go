package logging

import "testing"

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		stage       string
		done, total int
		want        bool
	}{
		{"vqa", 0, 8, true},
		{"vqa", 1, 8, false},
		{"vqa", 2, 8, true},
		{"vqa", 3, 8, false},
		{" vqa ", 4, 8, true},
		{"vqa", 8, 8, true},
		{"vqa", 8, 8, false},
		{"export", 0, 4, true},
		{"export", 9, 4, true},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.stage, step.done, step.total); got != step.want {
			t.Fatalf("step %d (%s %d/%d): got %v, want %v", i, step.stage, step.done, step.total, got, step.want)
		}
	}
}

func TestProgressSamplerUnknownTotal(t *testing.T) {
	s := NewProgressSampler(0)
	if s.step != 10 {
		t.Fatalf("default step = %v", s.step)
	}
	if !s.ShouldLog("subtasks", 3, 0) {
		t.Fatal("first update of a stage should log")
	}
	if s.ShouldLog("subtasks", 4, 0) {
		t.Fatal("unknown total should only log stage changes")
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog("vqa", 1, 2) {
		t.Fatal("nil sampler should always log")
	}
}
