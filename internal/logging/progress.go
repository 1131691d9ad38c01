package logging

import "strings"

// ProgressSampler thins done/total progress updates to one log line per
// percentage step, plus one whenever the stage changes.
type ProgressSampler struct {
	step   float64
	stage  string
	bucket int
}

// NewProgressSampler logs every step percent; non-positive steps mean 10.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 10
	}
	return &ProgressSampler{step: step, bucket: -1}
}

// ShouldLog reports whether done out of total in stage deserves a log line.
// With an unknown total (<= 0) only stage changes are logged. A nil sampler
// logs everything.
func (s *ProgressSampler) ShouldLog(stage string, done, total int) bool {
	if s == nil {
		return true
	}
	emit := false
	if stage = strings.TrimSpace(stage); stage != s.stage {
		s.stage = stage
		s.bucket = -1
		emit = true
	}
	if total <= 0 {
		return emit
	}
	percent := min(100, 100*float64(max(done, 0))/float64(total))
	if bucket := int(percent / s.step); bucket > s.bucket {
		s.bucket = bucket
		emit = true
	}
	return emit
}
