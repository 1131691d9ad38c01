package annotations

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"annotator/internal/logging"
	"annotator/internal/services"
)

// ImportReport summarizes a bulk import.
type ImportReport struct {
	EpisodesUpdated int `json:"episodes_updated"`
	Records         int `json:"records"`
	MissingSamples  int `json:"missing_samples"`
}

type segmentsFile struct {
	Segments []struct {
		StartFrame  *float64 `json:"start_frame"`
		EndFrame    *float64 `json:"end_frame"`
		Instruction string   `json:"instruction"`
	} `json:"segments"`
}

type qaLine struct {
	FrameIdx *float64 `json:"frame_idx"`
	QAs      []struct {
		Type     string `json:"type"`
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"qas"`
}

func sampleDir(root string, episode int) string {
	return filepath.Join(root, fmt.Sprintf("sample_%06d", episode))
}

func checkImportRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return services.Wrap(services.ErrNotFound, "annotations", "import", fmt.Sprintf("root path not found: %s", root), err)
	}
	return nil
}

// ImportSubtasks replaces subtasks of every listed episode that has a
// sample_NNNNNN/segments.json under root. Frame bounds are converted to
// seconds with fps.
func (s *Store) ImportSubtasks(root string, episodes []int, fps float64) (ImportReport, error) {
	var report ImportReport
	if err := checkImportRoot(root); err != nil {
		return report, err
	}
	if fps <= 0 {
		fps = 30
	}
	updates := make(map[int]Episode)
	for _, idx := range episodes {
		data, err := os.ReadFile(filepath.Join(sampleDir(root, idx), "segments.json"))
		if err != nil {
			report.MissingSamples++
			continue
		}
		var file segmentsFile
		if err := json.Unmarshal(data, &file); err != nil {
			logging.WarnWithContext(s.logger, "skipping unreadable segments file", "import_file_invalid",
				logging.Int(logging.FieldEpisodeIndex, idx),
				logging.Error(err),
			)
			continue
		}
		var subtasks []Subtask
		for _, seg := range file.Segments {
			label := strings.TrimSpace(seg.Instruction)
			if seg.StartFrame == nil || seg.EndFrame == nil || label == "" {
				continue
			}
			start := *seg.StartFrame / fps
			end := *seg.EndFrame / fps
			if end <= start {
				continue
			}
			subtasks = append(subtasks, Subtask{Start: Round3(start), End: Round3(end), Label: label})
		}
		if len(subtasks) == 0 {
			continue
		}
		ann := s.Get(idx)
		ann.Subtasks = subtasks
		updates[idx] = ann
		report.EpisodesUpdated++
		report.Records += len(subtasks)
	}
	if err := s.PutMany(updates); err != nil {
		return report, err
	}
	return report, nil
}

// ImportQA replaces QA labels of every listed episode that has *.jsonl files
// under sample_NNNNNN/. Labels are sorted by frame index.
func (s *Store) ImportQA(root string, episodes []int) (ImportReport, error) {
	var report ImportReport
	if err := checkImportRoot(root); err != nil {
		return report, err
	}
	updates := make(map[int]Episode)
	for _, idx := range episodes {
		dir := sampleDir(root, idx)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			report.MissingSamples++
			continue
		}
		files, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
		if err != nil || len(files) == 0 {
			continue
		}
		sort.Strings(files)
		var labels []QALabel
		for _, path := range files {
			lines, err := readJSONL(path)
			if err != nil {
				logging.WarnWithContext(s.logger, "skipping unreadable QA file", "import_file_invalid",
					logging.Int(logging.FieldEpisodeIndex, idx),
					logging.String("path", path),
					logging.Error(err),
				)
				continue
			}
			for _, line := range lines {
				if line.FrameIdx == nil || *line.FrameIdx < 0 {
					continue
				}
				for _, qa := range line.QAs {
					question := strings.TrimSpace(qa.Question)
					answer := strings.TrimSpace(qa.Answer)
					if question == "" || answer == "" {
						continue
					}
					labels = append(labels, QALabel{
						FrameIdx: int(*line.FrameIdx),
						Type:     strings.TrimSpace(qa.Type),
						Question: question,
						Answer:   answer,
					})
				}
			}
		}
		if len(labels) == 0 {
			continue
		}
		sort.SliceStable(labels, func(i, j int) bool { return labels[i].FrameIdx < labels[j].FrameIdx })
		ann := s.Get(idx)
		ann.QALabels = labels
		updates[idx] = ann
		report.EpisodesUpdated++
		report.Records += len(labels)
	}
	if err := s.PutMany(updates); err != nil {
		return report, err
	}
	return report, nil
}

// readJSONL decodes one object per line, skipping blank and undecodable lines.
func readJSONL(path string) ([]qaLine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var out []qaLine
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var line qaLine
		if err := json.Unmarshal([]byte(text), &line); err != nil {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}
