package annotations

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"annotator/internal/logging"
)

const documentVersion = 1

type document struct {
	Version  int                `json:"version"`
	Episodes map[string]Episode `json:"episodes"`
}

type rawDocument struct {
	Episodes map[string]rawEpisode `json:"episodes"`
}

type rawEpisode struct {
	Subtasks   []rawSubtask   `json:"subtasks"`
	HighLevels []rawHighLevel `json:"high_levels"`
	QALabels   []rawQALabel   `json:"qa_labels"`
}

type rawSubtask struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Label string   `json:"label"`
}

type rawHighLevel struct {
	Start          *float64 `json:"start"`
	End            *float64 `json:"end"`
	UserPrompt     string   `json:"user_prompt"`
	RobotUtterance string   `json:"robot_utterance"`
	Skill          *string  `json:"skill"`
	ScenarioType   *string  `json:"scenario_type"`
	ResponseType   *string  `json:"response_type"`
}

type rawQALabel struct {
	FrameIdx *float64 `json:"frame_idx"`
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
}

type rawSkills struct {
	Episodes map[string]struct {
		Skills []struct {
			Start *float64 `json:"start"`
			End   *float64 `json:"end"`
			Name  string   `json:"name"`
		} `json:"skills"`
	} `json:"episodes"`
}

// decodeDocument parses the annotation document, dropping records that lack
// a span or frame index.
func decodeDocument(data []byte, logger *slog.Logger) (map[int]Episode, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[int]Episode, len(raw.Episodes))
	dropped := 0
	for key, payload := range raw.Episodes {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("episode key %q is not an integer", key)
		}
		var ep Episode
		for _, s := range payload.Subtasks {
			if s.Start == nil || s.End == nil {
				dropped++
				continue
			}
			ep.Subtasks = append(ep.Subtasks, Subtask{Start: *s.Start, End: *s.End, Label: s.Label})
		}
		for _, h := range payload.HighLevels {
			if h.Start == nil || h.End == nil {
				dropped++
				continue
			}
			ep.HighLevels = append(ep.HighLevels, HighLevel{
				Start:          *h.Start,
				End:            *h.End,
				UserPrompt:     h.UserPrompt,
				RobotUtterance: h.RobotUtterance,
				Skill:          deref(h.Skill),
				ScenarioType:   deref(h.ScenarioType),
				ResponseType:   deref(h.ResponseType),
			})
		}
		for _, q := range payload.QALabels {
			if q.FrameIdx == nil || *q.FrameIdx < 0 {
				dropped++
				continue
			}
			ep.QALabels = append(ep.QALabels, QALabel{FrameIdx: int(*q.FrameIdx), Type: q.Type, Question: q.Question, Answer: q.Answer})
		}
		out[idx] = ep.Clone()
	}
	if dropped > 0 {
		logging.WarnWithContext(logger, "dropped malformed annotation records", "annotation_records_dropped",
			logging.Int("dropped", dropped),
			logging.String(logging.FieldErrorHint, "records need start and end (or frame_idx for QA labels)"),
			logging.String(logging.FieldImpact, "dropped records are not exported"),
		)
	}
	return out, nil
}

// decodeSkills converts the legacy skills file into subtask lists.
func decodeSkills(data []byte) (map[int]Episode, error) {
	var raw rawSkills
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[int]Episode, len(raw.Episodes))
	for key, payload := range raw.Episodes {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("episode key %q is not an integer", key)
		}
		ep := Episode{}.Clone()
		for _, s := range payload.Skills {
			if s.Start == nil || s.End == nil {
				continue
			}
			ep.Subtasks = append(ep.Subtasks, Subtask{Start: *s.Start, End: *s.End, Label: s.Name})
		}
		out[idx] = ep
	}
	return out, nil
}

func encodeDocument(episodes map[int]Episode) ([]byte, error) {
	doc := document{Version: documentVersion, Episodes: make(map[string]Episode, len(episodes))}
	for idx, ep := range episodes {
		doc.Episodes[strconv.Itoa(idx)] = ep.Clone()
	}
	return json.MarshalIndent(doc, "", "  ")
}

func sortedIndexes(episodes map[int]Episode) []int {
	out := make([]int, 0, len(episodes))
	for idx := range episodes {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
