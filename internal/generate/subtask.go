package generate

import (
	"context"
	"math"
	"strings"

	"annotator/internal/annotations"
	"annotator/internal/dataset"
	"annotator/internal/language"
	"annotator/internal/services"
	"annotator/internal/services/llm"
	"annotator/internal/textutil"
)

type subtaskStrategy struct {
	media  MediaSource
	timing dataset.EpisodeTiming
	video  string

	stride        float64
	maxSteps      int
	segmentFrames int

	systemPrompt string
	userTemplate string
	summary      string
	examples     string
	language     string
	temperature  float64
	maxTokens    int
}

func (s *subtaskStrategy) Done(cursor float64, step int) bool {
	return cursor >= s.timing.Duration || step >= s.maxSteps
}

func (s *subtaskStrategy) Window(cursor float64, step int) Window {
	return Window{Step: step, Start: cursor, End: math.Min(s.timing.Duration, cursor+s.stride)}
}

func (s *subtaskStrategy) Request(ctx context.Context, w Window) (Request, error) {
	absStart, absEnd := s.timing.Absolute(w.Start, w.End)
	fps := clipFPS(s.segmentFrames, math.Max(1e-3, w.End-w.Start), windowMinFPS, windowMaxFPS)
	clip, err := s.media.ClipDataURL(ctx, s.video, absStart, absEnd, fps)
	if err != nil {
		return Request{}, err
	}
	text := textutil.Bind(strings.TrimSpace(s.userTemplate), map[string]string{
		"episode_summary": s.summary,
		"examples":        s.examples,
		"time_s":          seconds(w.Start),
		"seg_start_s":     seconds(w.Start),
		"seg_end_s":       seconds(w.End),
		"duration_s":      seconds(math.Max(0, w.End-w.Start)),
		"language":        language.PromptName(s.language),
	})
	return Request{
		Messages: []llm.Message{
			llm.SystemMessage(strings.TrimSpace(s.systemPrompt)),
			llm.UserParts(llm.TextPart(text), llm.VideoPart(clip)),
		},
		Options: llm.ChatOptions{Temperature: s.temperature, MaxTokens: s.maxTokens, JSON: true},
	}, nil
}

func (s *subtaskStrategy) Parse(w Window, reply string) (annotations.Subtask, error) {
	obj, err := llm.ExtractObject(reply)
	if err != nil {
		return annotations.Subtask{}, err
	}
	label := llm.StringField(obj, "label")
	if label == "" {
		return annotations.Subtask{}, services.Wrap(services.ErrMalformedResponse, "generate", "subtask", "model returned empty label", nil)
	}
	return annotations.Subtask{
		Start: annotations.Round3(w.Start),
		End:   annotations.Round3(w.End),
		Label: label,
	}, nil
}

// Recover never salvages a window: a gap in contiguous labels is worse than
// stopping.
func (s *subtaskStrategy) Recover(_ Window, err error) (annotations.Subtask, error) {
	return annotations.Subtask{}, err
}

// MergeAdjacent folds consecutive segments that share a label and touch or
// overlap into one, then rounds every bound to milliseconds.
func MergeAdjacent(segments []annotations.Subtask) []annotations.Subtask {
	if len(segments) == 0 {
		return []annotations.Subtask{}
	}
	out := make([]annotations.Subtask, 0, len(segments))
	for _, seg := range segments {
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if prev.Label == seg.Label && prev.End >= seg.Start {
				prev.End = math.Max(prev.End, seg.End)
				continue
			}
		}
		out = append(out, seg)
	}
	for i := range out {
		out[i].Start = annotations.Round3(out[i].Start)
		out[i].End = annotations.Round3(out[i].End)
	}
	return out
}
