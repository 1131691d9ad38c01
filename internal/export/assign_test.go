package export

import (
	"math/rand"
	"reflect"
	"testing"

	"annotator/internal/annotations"
)

func indexOf(labels ...string) *LabelIndex {
	idx := NewLabelIndex()
	for _, l := range labels {
		idx.Add(l)
	}
	return idx
}

func TestAssignBoundaries(t *testing.T) {
	intervals := []Interval{{Start: 0, End: 1, Key: "L0"}, {Start: 1, End: 2, Key: "L1"}}
	got := Assign([]float64{0, 0.999, 1.0, 1.999, 2.0}, intervals, indexOf("L0", "L1"))
	want := []int{0, 0, 1, 1, 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Assign = %v, want %v", got, want)
	}
}

func TestAssignUnmatched(t *testing.T) {
	intervals := []Interval{{Start: 1, End: 2, Key: "a"}, {Start: 3, End: 4, Key: "b"}}
	got := Assign([]float64{0.5, 1.5, 2.5, 4.0, 4.5}, intervals, indexOf("a", "b"))
	want := []int{-1, 0, -1, 1, -1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Assign = %v, want %v", got, want)
	}
	if got := Assign([]float64{1, 2}, nil, indexOf()); !reflect.DeepEqual(got, []int{-1, -1}) {
		t.Fatalf("no intervals should yield -1, got %v", got)
	}
	if got := Assign([]float64{1.5}, intervals, indexOf("b")); got[0] != -1 {
		t.Fatalf("unknown label should yield -1, got %v", got)
	}
}

func TestAssignIsDeterministicUnderShuffle(t *testing.T) {
	intervals := []Interval{
		{Start: 0, End: 2, Key: "a"},
		{Start: 1, End: 3, Key: "b"},
		{Start: 1, End: 3, Key: "c"},
		{Start: 3, End: 5, Key: "a"},
		{Start: 4.5, End: 6, Key: "d"},
	}
	labels := indexOf("a", "b", "c", "d")
	timestamps := make([]float64, 0, 61)
	for i := 0; i <= 60; i++ {
		timestamps = append(timestamps, float64(i)/10)
	}
	want := Assign(timestamps, intervals, labels)
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		shuffled := append([]Interval(nil), intervals...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if got := Assign(timestamps, shuffled, labels); !reflect.DeepEqual(got, want) {
			t.Fatalf("round %d: Assign = %v, want %v", round, got, want)
		}
	}
	if !reflect.DeepEqual(Assign(timestamps, intervals, labels), want) {
		t.Fatalf("Assign is not idempotent")
	}
}

func TestAssignPoints(t *testing.T) {
	frames := map[int]struct{}{0: {}, 3: {}}
	got := AssignPoints([]float64{0, 1.0 / 30, 0.099, 0.1, 0.2}, frames, 30)
	want := []int{1, 0, 1, 1, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AssignPoints = %v, want %v", got, want)
	}
	if got := AssignPoints([]float64{0.1}, frames, 0); got[0] != 1 {
		t.Fatalf("fps should default to 30, got %v", got)
	}
	if got := AssignPoints([]float64{0}, nil, 30); got[0] != 0 {
		t.Fatalf("no frames should flag nothing, got %v", got)
	}
}

func TestBuildLabelsFirstSeenAcrossEpisodes(t *testing.T) {
	qa := annotations.HighLevel{Start: 0, End: 1, UserPrompt: "Q", RobotUtterance: "A", Skill: "fake_vqa"}
	all := map[int]annotations.Episode{
		5: {Subtasks: []annotations.Subtask{{Label: "place"}, {Label: "reach"}}},
		1: {
			Subtasks:   []annotations.Subtask{{Label: "reach"}, {Label: ""}, {Label: "grasp"}},
			HighLevels: []annotations.HighLevel{qa, qa},
		},
	}
	labels := BuildLabels(all)
	if got := labels.Subtasks.Labels(); !reflect.DeepEqual(got, []string{"reach", "grasp", "place"}) {
		t.Fatalf("subtask labels = %v", got)
	}
	if labels.Tasks.Len() != 1 || len(labels.TaskRecords) != 1 || labels.TaskRecords[0] != qa {
		t.Fatalf("unexpected tasks %+v", labels.TaskRecords)
	}
}

func TestProjectSharesGlobalIndices(t *testing.T) {
	all := map[int]annotations.Episode{
		0: {Subtasks: []annotations.Subtask{{Start: 0, End: 1, Label: "a"}}},
		1: {
			Subtasks: []annotations.Subtask{{Start: 0, End: 0.5, Label: "b"}, {Start: 0.5, End: 1, Label: "a"}},
			QALabels: []annotations.QALabel{{FrameIdx: 2}},
		},
	}
	labels := BuildLabels(all)
	cols := Project(all[1], []float64{0, 0.25, 0.5, 1.0}, 4, labels)
	if !reflect.DeepEqual(cols.SubtaskIndex, []int{1, 1, 0, 0}) {
		t.Fatalf("subtask column = %v", cols.SubtaskIndex)
	}
	if !reflect.DeepEqual(cols.TaskIndexHighLevel, []int{-1, -1, -1, -1}) {
		t.Fatalf("task column = %v", cols.TaskIndexHighLevel)
	}
	if !reflect.DeepEqual(cols.VQA, []int{0, 0, 1, 0}) {
		t.Fatalf("vqa column = %v", cols.VQA)
	}
}
