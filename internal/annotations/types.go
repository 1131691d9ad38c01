package annotations

import "math"

// Subtask is a labeled span of an episode.
type Subtask struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Label string  `json:"label"`
}

// HighLevel is a prompt/utterance pair anchored to a span.
type HighLevel struct {
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	UserPrompt     string  `json:"user_prompt"`
	RobotUtterance string  `json:"robot_utterance"`
	Skill          string  `json:"skill,omitempty"`
	ScenarioType   string  `json:"scenario_type,omitempty"`
	ResponseType   string  `json:"response_type,omitempty"`
}

// TaskKey identifies identical high-level tasks across episodes.
func (h HighLevel) TaskKey() string {
	return h.UserPrompt + "||" + h.RobotUtterance + "||" + h.Skill + "||" + h.ScenarioType + "||" + h.ResponseType
}

// QALabel is a question/answer pair anchored to one frame.
type QALabel struct {
	FrameIdx int    `json:"frame_idx"`
	Type     string `json:"type"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Episode holds one episode's annotation sequences.
type Episode struct {
	Subtasks   []Subtask   `json:"subtasks"`
	HighLevels []HighLevel `json:"high_levels"`
	QALabels   []QALabel   `json:"qa_labels"`
}

// Clone returns a deep copy with non-nil slices.
func (e Episode) Clone() Episode {
	return Episode{
		Subtasks:   append(make([]Subtask, 0, len(e.Subtasks)), e.Subtasks...),
		HighLevels: append(make([]HighLevel, 0, len(e.HighLevels)), e.HighLevels...),
		QALabels:   append(make([]QALabel, 0, len(e.QALabels)), e.QALabels...),
	}
}

// Empty reports whether the episode carries no annotations.
func (e Episode) Empty() bool {
	return len(e.Subtasks) == 0 && len(e.HighLevels) == 0 && len(e.QALabels) == 0
}

// Round3 rounds to millisecond precision for stable serialization.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
