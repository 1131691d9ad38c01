package export

import (
	"annotator/internal/annotations"
)

const defaultFPS = 30.0

// LabelIndex numbers label strings in first-seen order.
type LabelIndex struct {
	index  map[string]int
	labels []string
}

// NewLabelIndex returns an empty index.
func NewLabelIndex() *LabelIndex {
	return &LabelIndex{index: make(map[string]int)}
}

// Add returns the index of label, assigning the next one if it is new.
func (l *LabelIndex) Add(label string) int {
	if idx, ok := l.index[label]; ok {
		return idx
	}
	idx := len(l.labels)
	l.index[label] = idx
	l.labels = append(l.labels, label)
	return idx
}

// Lookup returns the index of label without adding it.
func (l *LabelIndex) Lookup(label string) (int, bool) {
	if l == nil {
		return -1, false
	}
	idx, ok := l.index[label]
	return idx, ok
}

// Labels returns labels ordered by index.
func (l *LabelIndex) Labels() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.labels...)
}

// Len is the number of distinct labels.
func (l *LabelIndex) Len() int {
	if l == nil {
		return 0
	}
	return len(l.labels)
}

// Labels is the global numbering shared by every exported episode.
type Labels struct {
	Subtasks *LabelIndex
	Tasks    *LabelIndex
	// TaskRecords holds the first high-level record seen for each task
	// index.
	TaskRecords []annotations.HighLevel
}

// BuildLabels numbers subtask labels and high-level task keys across all
// episodes, visiting episodes in ascending order. Empty subtask labels are
// not numbered.
func BuildLabels(all map[int]annotations.Episode) Labels {
	labels := Labels{Subtasks: NewLabelIndex(), Tasks: NewLabelIndex()}
	for _, idx := range sortedEpisodes(all) {
		ann := all[idx]
		for _, seg := range ann.Subtasks {
			if seg.Label != "" {
				labels.Subtasks.Add(seg.Label)
			}
		}
		for _, hl := range ann.HighLevels {
			key := hl.TaskKey()
			if _, ok := labels.Tasks.Lookup(key); ok {
				continue
			}
			labels.Tasks.Add(key)
			labels.TaskRecords = append(labels.TaskRecords, hl)
		}
	}
	return labels
}
