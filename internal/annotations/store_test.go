package annotations_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"annotator/internal/annotations"
	"annotator/internal/services"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func docPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "meta", "lerobot_annotations.json")
}

func TestOpenMissingDocumentIsEmpty(t *testing.T) {
	store, err := annotations.Open(docPath(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ann := store.Get(3)
	if !ann.Empty() || ann.Subtasks == nil || ann.HighLevels == nil || ann.QALabels == nil {
		t.Fatalf("expected empty non-nil sequences, got %+v", ann)
	}
	if len(store.Episodes()) != 0 {
		t.Fatalf("Get must not create entries: %v", store.Episodes())
	}
}

func TestPutSaveAndReload(t *testing.T) {
	path := docPath(t)
	store, err := annotations.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ep := annotations.Episode{
		Subtasks:   []annotations.Subtask{{Start: 0, End: 1.5, Label: "reach"}},
		HighLevels: []annotations.HighLevel{{Start: 0, End: 6, UserPrompt: "What is red?", RobotUtterance: "The cup.", Skill: "fake_vqa", ScenarioType: "vqa", ResponseType: "answer"}},
		QALabels:   []annotations.QALabel{{FrameIdx: 12, Type: "color", Question: "Cup color?", Answer: "Red"}},
	}
	if err := store.Put(10, ep); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(2, annotations.Episode{Subtasks: []annotations.Subtask{{Start: 1, End: 2, Label: "grasp"}}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	var doc struct {
		Version  int                        `json:"version"`
		Episodes map[string]json.RawMessage `json:"episodes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.Version != 1 || len(doc.Episodes) != 2 {
		t.Fatalf("unexpected document %s", data)
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}

	reloaded, err := annotations.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reloaded.Get(10)
	if len(got.Subtasks) != 1 || got.HighLevels[0].Skill != "fake_vqa" || got.QALabels[0].FrameIdx != 12 {
		t.Fatalf("unexpected reload %+v", got)
	}
	if eps := reloaded.Episodes(); len(eps) != 2 || eps[0] != 2 || eps[1] != 10 {
		t.Fatalf("Episodes = %v", eps)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store, err := annotations.Open(docPath(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Put(0, annotations.Episode{Subtasks: []annotations.Subtask{{Start: 0, End: 1, Label: "a"}}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ann := store.Get(0)
	ann.Subtasks[0].Label = "mutated"
	if store.Get(0).Subtasks[0].Label != "a" {
		t.Fatal("Get must return a deep copy")
	}
}

func TestOpenDropsMalformedRecords(t *testing.T) {
	path := docPath(t)
	writeFile(t, path, `{
  "version": 1,
  "episodes": {
    "4": {
      "subtasks": [{"start": 0, "end": 1, "label": "ok"}, {"start": 1, "label": "no end"}],
      "high_levels": [{"end": 2, "user_prompt": "q", "robot_utterance": "a"}, {"start": 0, "end": 2, "user_prompt": "q", "robot_utterance": "a", "skill": null}],
      "qa_labels": [{"type": "t", "question": "q", "answer": "a"}, {"frame_idx": 5, "type": "t", "question": "q", "answer": "a"}]
    }
  }
}`)
	store, err := annotations.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ann := store.Get(4)
	if len(ann.Subtasks) != 1 || len(ann.HighLevels) != 1 || len(ann.QALabels) != 1 {
		t.Fatalf("unexpected records %+v", ann)
	}
	if ann.QALabels[0].FrameIdx != 5 || ann.HighLevels[0].Skill != "" {
		t.Fatalf("unexpected surviving records %+v", ann)
	}
}

func TestOpenRejectsBadDocument(t *testing.T) {
	path := docPath(t)
	writeFile(t, path, `{"episodes": {"x": {}}}`)
	if _, err := annotations.Open(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestOpenFallsBackToSkills(t *testing.T) {
	path := docPath(t)
	writeFile(t, filepath.Join(filepath.Dir(path), "skills.json"), `{
  "episodes": {
    "0": {"skills": [{"start": 0, "end": 2.5, "name": "open drawer"}, {"start": 2.5, "name": "dangling"}]},
    "1": {"skills": []}
  }
}`)
	store, err := annotations.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ann := store.Get(0)
	if len(ann.Subtasks) != 1 || ann.Subtasks[0].Label != "open drawer" || ann.Subtasks[0].End != 2.5 {
		t.Fatalf("unexpected skills seed %+v", ann.Subtasks)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("loading skills must not write the document")
	}
}

func TestAcquireIsExclusivePerEpisode(t *testing.T) {
	store, err := annotations.Open(docPath(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	release, err := store.Acquire(1)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := store.Acquire(1); !errors.Is(err, services.ErrBusy) {
		t.Fatalf("second Acquire err = %v, want ErrBusy", err)
	}
	other, err := store.Acquire(2)
	if err != nil {
		t.Fatalf("Acquire other episode: %v", err)
	}
	other()
	release()
	release()
	again, err := store.Acquire(1)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	again()
}

func TestTaskKey(t *testing.T) {
	h := annotations.HighLevel{UserPrompt: "q", RobotUtterance: "a", ScenarioType: "vqa", ResponseType: "answer"}
	if got := h.TaskKey(); got != "q||a||||vqa||answer" {
		t.Fatalf("TaskKey = %q", got)
	}
}

func TestRound3(t *testing.T) {
	if got := annotations.Round3(1.23456); got != 1.235 {
		t.Fatalf("Round3 = %v", got)
	}
}

func TestSaveKeepsEpisodesWrittenByOtherStores(t *testing.T) {
	path := docPath(t)
	first, err := annotations.Open(path)
	if err != nil {
		t.Fatalf("Open first: %v", err)
	}
	second, err := annotations.Open(path)
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}

	if err := first.Put(0, annotations.Episode{Subtasks: []annotations.Subtask{{Start: 0, End: 1, Label: "reach"}}}); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := second.Put(1, annotations.Episode{Subtasks: []annotations.Subtask{{Start: 0, End: 2, Label: "grasp"}}}); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if got := second.Get(0); len(got.Subtasks) != 1 || got.Subtasks[0].Label != "reach" {
		t.Fatalf("second store should pick up episode 0 on save, got %+v", got)
	}

	reloaded, err := annotations.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if eps := reloaded.Episodes(); len(eps) != 2 || eps[0] != 0 || eps[1] != 1 {
		t.Fatalf("Episodes = %v, want [0 1]", eps)
	}
	if got := reloaded.Get(0); got.Subtasks[0].Label != "reach" {
		t.Fatalf("episode 0 = %+v", got)
	}

	// Rewriting an episode the other store also holds replaces it on disk.
	if err := first.Put(1, annotations.Episode{Subtasks: []annotations.Subtask{{Start: 0, End: 3, Label: "lift"}}}); err != nil {
		t.Fatalf("first Put episode 1: %v", err)
	}
	reloaded, err = annotations.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reloaded.Get(1); len(got.Subtasks) != 1 || got.Subtasks[0].Label != "lift" {
		t.Fatalf("episode 1 = %+v", got)
	}
	if got := reloaded.Get(0); got.Subtasks[0].Label != "reach" {
		t.Fatalf("episode 0 lost: %+v", got)
	}
}
