package export

import (
	"math"
	"sort"
)

// Interval is a labeled span; Key is the text looked up in a LabelIndex.
type Interval struct {
	Start float64
	End   float64
	Key   string
}

// Assign returns, for each timestamp, the index of the label of the first
// interval (by start) containing it, or -1. Intervals are half-open except
// the last, which also claims its end so the final sample of an episode is
// not orphaned.
func Assign(timestamps []float64, intervals []Interval, labels *LabelIndex) []int {
	out := make([]int, len(timestamps))
	for i := range out {
		out[i] = -1
	}
	if len(intervals) == 0 {
		return out
	}
	sorted := append([]Interval(nil), intervals...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Key < b.Key
	})
	last := len(sorted) - 1
	for i, ts := range timestamps {
		for j, iv := range sorted {
			if iv.Start <= ts && (ts < iv.End || (j == last && ts <= iv.End)) {
				if idx, ok := labels.Lookup(iv.Key); ok {
					out[i] = idx
				}
				break
			}
		}
	}
	return out
}

// AssignPoints flags timestamps whose rounded frame index is in frames.
// A non-positive fps falls back to 30.
func AssignPoints(timestamps []float64, frames map[int]struct{}, fps float64) []int {
	out := make([]int, len(timestamps))
	if len(frames) == 0 {
		return out
	}
	if fps <= 0 {
		fps = defaultFPS
	}
	for i, ts := range timestamps {
		if _, ok := frames[int(math.Round(ts*fps))]; ok {
			out[i] = 1
		}
	}
	return out
}
