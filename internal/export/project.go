package export

import (
	"sort"

	"annotator/internal/annotations"
)

// Columns are the per-sample values appended to one episode's rows.
type Columns struct {
	SubtaskIndex       []int
	TaskIndexHighLevel []int
	VQA                []int
}

// Project assigns subtask indices, high-level task indices and QA flags to
// one episode's sample timestamps.
func Project(ann annotations.Episode, timestamps []float64, fps float64, labels Labels) Columns {
	subtasks := make([]Interval, 0, len(ann.Subtasks))
	for _, seg := range ann.Subtasks {
		subtasks = append(subtasks, Interval{Start: seg.Start, End: seg.End, Key: seg.Label})
	}
	tasks := make([]Interval, 0, len(ann.HighLevels))
	for _, hl := range ann.HighLevels {
		tasks = append(tasks, Interval{Start: hl.Start, End: hl.End, Key: hl.TaskKey()})
	}
	frames := make(map[int]struct{}, len(ann.QALabels))
	for _, qa := range ann.QALabels {
		frames[qa.FrameIdx] = struct{}{}
	}
	return Columns{
		SubtaskIndex:       Assign(timestamps, subtasks, labels.Subtasks),
		TaskIndexHighLevel: Assign(timestamps, tasks, labels.Tasks),
		VQA:                AssignPoints(timestamps, frames, fps),
	}
}

func sortedEpisodes(all map[int]annotations.Episode) []int {
	out := make([]int, 0, len(all))
	for idx := range all {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
