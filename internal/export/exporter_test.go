package export_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"annotator/internal/annotations"
	"annotator/internal/dataset"
	"annotator/internal/export"
	"annotator/internal/services"
	"annotator/internal/testsupport"
)

type staticSource map[int]annotations.Episode

func (s staticSource) All() map[int]annotations.Episode { return s }

func writeExportDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	root := testsupport.WriteDataset(t, filepath.Join(t.TempDir(), "src"), testsupport.DatasetFixture{
		FPS:       10,
		VideoKeys: []string{"observation.images.front"},
		Episodes: []map[string]any{
			{"episode_index": 0, "length": 20, "data/chunk_index": 0, "data/file_index": 0},
			{"episode_index": 1, "length": 10, "dataset_from_index": 20, "data/chunk_index": 0, "data/file_index": 0},
			{"episode_index": 2, "length": 10, "dataset_from_index": 30, "data/chunk_index": 0, "data/file_index": 1},
		},
		WriteVideos: true,
	})
	ds, err := dataset.Open(root)
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	return ds
}

func column(t *testing.T, db *sql.DB, name string, episode int) []int {
	t.Helper()
	rows, err := db.Query("SELECT "+name+" FROM samples WHERE episode_index = ? ORDER BY frame_index", episode)
	if err != nil {
		t.Fatalf("query %s: %v", name, err)
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return out
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestExporterWritesProjectedColumns(t *testing.T) {
	ds := writeExportDataset(t)
	source := staticSource{
		0: {Subtasks: []annotations.Subtask{{Start: 0, End: 1, Label: "reach"}, {Start: 1, End: 2, Label: "grasp"}}},
		1: {
			Subtasks:   []annotations.Subtask{{Start: 0, End: 0.5, Label: "grasp"}},
			HighLevels: []annotations.HighLevel{{Start: 0, End: 1, UserPrompt: "Q", RobotUtterance: "A", Skill: "fake_vqa", ScenarioType: "vqa", ResponseType: "answer"}},
			QALabels:   []annotations.QALabel{{FrameIdx: 3, Type: "color", Question: "Cup?", Answer: "Red"}},
		},
	}
	out := filepath.Join(t.TempDir(), "out")
	var progress []int
	report, err := export.NewExporter(ds, source, export.WithProgress(func(done, _ int) { progress = append(progress, done) })).Run(context.Background(), out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Partitions != 2 || report.Samples != 40 || report.Subtasks != 2 || report.TasksHighLevel != 1 || report.QALabels != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !reflect.DeepEqual(progress, []int{1, 2}) {
		t.Fatalf("unexpected progress %v", progress)
	}

	db, err := sql.Open("sqlite", report.Database)
	if err != nil {
		t.Fatalf("open export db: %v", err)
	}
	defer db.Close()

	if got, want := column(t, db, "subtask_index", 0), append(repeat(0, 10), repeat(1, 10)...); !reflect.DeepEqual(got, want) {
		t.Fatalf("episode 0 subtasks = %v, want %v", got, want)
	}
	if got, want := column(t, db, "subtask_index", 1), append(repeat(1, 6), repeat(-1, 4)...); !reflect.DeepEqual(got, want) {
		t.Fatalf("episode 1 subtasks = %v, want %v", got, want)
	}
	if got := column(t, db, "task_index_high_level", 1); !reflect.DeepEqual(got, repeat(0, 10)) {
		t.Fatalf("episode 1 tasks = %v", got)
	}
	wantVQA := repeat(0, 10)
	wantVQA[3] = 1
	if got := column(t, db, "vqa", 1); !reflect.DeepEqual(got, wantVQA) {
		t.Fatalf("episode 1 vqa = %v", got)
	}
	if got := column(t, db, "subtask_index", 2); !reflect.DeepEqual(got, repeat(-1, 10)) {
		t.Fatalf("unannotated episode = %v", got)
	}

	var rowIndex int
	var partition string
	if err := db.QueryRow("SELECT partition_name, row_index FROM samples WHERE episode_index = 2 AND frame_index = 0").Scan(&partition, &rowIndex); err != nil {
		t.Fatalf("query row index: %v", err)
	}
	if partition != "chunk-000/file-001" || rowIndex != 30 {
		t.Fatalf("unexpected partition/row %s/%d", partition, rowIndex)
	}

	var task string
	if err := db.QueryRow("SELECT task FROM tasks_high_level WHERE task_index = 0").Scan(&task); err != nil {
		t.Fatalf("query task: %v", err)
	}
	if task != "Q | A" {
		t.Fatalf("unexpected task %q", task)
	}
	var label string
	if err := db.QueryRow("SELECT subtask FROM subtasks WHERE subtask_index = 1").Scan(&label); err != nil {
		t.Fatalf("query subtask: %v", err)
	}
	if label != "grasp" {
		t.Fatalf("unexpected subtask label %q", label)
	}
	var ts float64
	if err := db.QueryRow("SELECT timestamp FROM qa_labels WHERE episode_index = 1").Scan(&ts); err != nil {
		t.Fatalf("query qa label: %v", err)
	}
	if ts != 0.3 {
		t.Fatalf("unexpected qa timestamp %v", ts)
	}

	data, err := os.ReadFile(filepath.Join(out, "meta", "info.json"))
	if err != nil {
		t.Fatalf("read info: %v", err)
	}
	var info struct {
		Codebase string                     `json:"codebase_version"`
		Features map[string]dataset.Feature `json:"features"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.Codebase != "v3.0" {
		t.Fatalf("source info keys must be preserved, got %q", info.Codebase)
	}
	for _, name := range []string{"subtask_index", "task_index_high_level", "vqa"} {
		if info.Features[name].DType != "int64" {
			t.Fatalf("feature %s missing or wrong: %+v", name, info.Features[name])
		}
	}
	if info.Features["observation.images.front"].DType != "video" {
		t.Fatalf("existing features must survive")
	}
	if _, err := os.Stat(filepath.Join(out, "meta", "episodes.jsonl")); err != nil {
		t.Fatalf("episodes table not copied: %v", err)
	}
}

func TestExporterRerunReplacesDatabase(t *testing.T) {
	ds := writeExportDataset(t)
	out := filepath.Join(t.TempDir(), "out")
	exporter := export.NewExporter(ds, staticSource{}, export.WithLinkedVideos(true))
	for i := 0; i < 2; i++ {
		report, err := exporter.Run(context.Background(), out)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if report.Samples != 40 {
			t.Fatalf("run %d: unexpected samples %d", i, report.Samples)
		}
	}
	link, err := os.Readlink(filepath.Join(out, "videos"))
	if err != nil {
		t.Fatalf("videos not linked: %v", err)
	}
	if link != filepath.Join(ds.Root(), "videos") {
		t.Fatalf("unexpected link target %s", link)
	}
}

func TestExporterRejectsBadOutput(t *testing.T) {
	ds := writeExportDataset(t)
	if _, err := export.NewExporter(ds, staticSource{}).Run(context.Background(), ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := export.NewExporter(ds, staticSource{}).Run(context.Background(), ds.Root()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("exporting onto the source must fail, got %v", err)
	}
	if _, err := export.NewExporter(nil, staticSource{}).Run(context.Background(), t.TempDir()); !errors.Is(err, services.ErrDatasetNotLoaded) {
		t.Fatalf("expected dataset not loaded, got %v", err)
	}
}
